package winmix

import (
	"fmt"
	"net"
	"strconv"

	"github.com/jfreymuth/pulse/proto"
	"go.uber.org/zap"
)

const (
	// full (100%) volume in PulseAudio's scale
	maxVolume = 0x10000

	processIDProperty = "application.process.id"
)

type paProvider struct {
	logger *zap.SugaredLogger

	client *proto.Client
	conn   net.Conn
}

func newAudioProvider(logger *zap.SugaredLogger) (AudioProvider, error) {
	logger = logger.Named("pulse")

	client, conn, err := proto.Connect("")
	if err != nil {
		logger.Warnw("Failed to establish PulseAudio connection", "error", err)
		return nil, fmt.Errorf("establish PulseAudio connection: %w", err)
	}

	request := proto.SetClientName{
		Props: proto.PropList{
			"application.name": proto.PropListString("winmix"),
		},
	}
	reply := proto.SetClientNameReply{}

	if err := client.Request(&request, &reply); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set client name: %w", err)
	}

	p := &paProvider{
		logger: logger,
		client: client,
		conn:   conn,
	}

	logger.Debug("Created PA audio provider instance")

	return p, nil
}

func (p *paProvider) Release() error {
	if err := p.conn.Close(); err != nil {
		p.logger.Warnw("Failed to close PulseAudio connection", "error", err)
		return fmt.Errorf("close PulseAudio connection: %w", err)
	}

	p.logger.Debug("Released PA audio provider instance")
	return nil
}

func (p *paProvider) DefaultRenderEndpoint() (Endpoint, error) {
	request := proto.GetSinkInfo{
		SinkIndex: proto.Undefined,
	}
	reply := proto.GetSinkInfoReply{}

	if err := p.client.Request(&request, &reply); err != nil {
		p.logger.Warnw("Failed to get default sink info", "error", err)
		return nil, fmt.Errorf("get default sink info: %w", err)
	}

	return &paEndpoint{provider: p, sinkIndex: reply.SinkIndex, name: reply.SinkName}, nil
}

func (p *paProvider) ActiveRenderEndpoints() ([]Endpoint, error) {
	request := proto.GetSinkInfoList{}
	reply := proto.GetSinkInfoListReply{}

	if err := p.client.Request(&request, &reply); err != nil {
		p.logger.Warnw("Failed to get sink info list", "error", err)
		return nil, fmt.Errorf("get sink info list: %w", err)
	}

	endpoints := make([]Endpoint, 0, len(reply))
	for _, sink := range reply {
		endpoints = append(endpoints, &paEndpoint{provider: p, sinkIndex: sink.SinkIndex, name: sink.SinkName})
	}

	return endpoints, nil
}

// sinks live on the server, there's nothing to hold or release on our side
type paEndpoint struct {
	provider  *paProvider
	sinkIndex uint32
	name      string
}

func (e *paEndpoint) ID() string {
	return e.name
}

func (e *paEndpoint) SessionManager() (SessionManager, error) {
	return &paSessionManager{provider: e.provider, sinkIndex: e.sinkIndex}, nil
}

func (e *paEndpoint) Release() {}

type paSessionManager struct {
	provider  *paProvider
	sinkIndex uint32
}

func (m *paSessionManager) Sessions() ([]SessionControl, error) {
	request := proto.GetSinkInputInfoList{}
	reply := proto.GetSinkInputInfoListReply{}

	if err := m.provider.client.Request(&request, &reply); err != nil {
		m.provider.logger.Warnw("Failed to get sink input list", "error", err)
		return nil, fmt.Errorf("get sink input list: %w", err)
	}

	sessions := []SessionControl{}
	for _, info := range reply {
		if info.SinkIndex != m.sinkIndex {
			continue
		}

		sessions = append(sessions, &paSessionControl{provider: m.provider, info: info})
	}

	return sessions, nil
}

func (m *paSessionManager) Release() {}

type paSessionControl struct {
	provider *paProvider
	info     *proto.GetSinkInputInfoReply
}

// ProcessID reports 0 for streams that don't carry a process id, the same as a system sounds session
func (s *paSessionControl) ProcessID() (uint32, error) {
	value, ok := s.info.Properties[processIDProperty]
	if !ok {
		return 0, nil
	}

	pid, err := strconv.ParseUint(value.String(), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse sink input %d process id: %w", s.info.SinkInputIndex, err)
	}

	return uint32(pid), nil
}

func (s *paSessionControl) SimpleAudioVolume() (SimpleAudioVolume, error) {
	return &paSimpleVolume{
		client:         s.provider.client,
		sinkInputIndex: s.info.SinkInputIndex,
		channels:       s.info.Channels,
	}, nil
}

func (s *paSessionControl) Release() {}

type paSimpleVolume struct {
	client         *proto.Client
	sinkInputIndex uint32
	channels       byte
}

func (v *paSimpleVolume) Target() string {
	return fmt.Sprintf("pulse:sink-input/%d", v.sinkInputIndex)
}

func (v *paSimpleVolume) info() (*proto.GetSinkInputInfoReply, error) {
	request := proto.GetSinkInputInfo{
		SinkInputIndex: v.sinkInputIndex,
	}
	reply := proto.GetSinkInputInfoReply{}

	if err := v.client.Request(&request, &reply); err != nil {
		return nil, fmt.Errorf("get sink input %d info: %w", v.sinkInputIndex, err)
	}

	return &reply, nil
}

func (v *paSimpleVolume) MasterVolume() (float32, error) {
	info, err := v.info()
	if err != nil {
		return 0, err
	}

	return parseChannelVolumes(info.ChannelVolumes), nil
}

func (v *paSimpleVolume) SetMasterVolume(level float32) error {
	request := proto.SetSinkInputVolume{
		SinkInputIndex: v.sinkInputIndex,
		ChannelVolumes: createChannelVolumes(v.channels, level),
	}

	if err := v.client.Request(&request, nil); err != nil {
		return fmt.Errorf("set sink input %d volume: %w", v.sinkInputIndex, err)
	}

	return nil
}

func (v *paSimpleVolume) Mute() (bool, error) {
	info, err := v.info()
	if err != nil {
		return false, err
	}

	return info.Muted, nil
}

func (v *paSimpleVolume) SetMute(mute bool) error {
	request := proto.SetSinkInputMute{
		SinkInputIndex: v.sinkInputIndex,
		Mute:           mute,
	}

	if err := v.client.Request(&request, nil); err != nil {
		return fmt.Errorf("set sink input %d mute: %w", v.sinkInputIndex, err)
	}

	return nil
}

func (v *paSimpleVolume) Release() {}

func createChannelVolumes(channels byte, level float32) []uint32 {
	volumes := make([]uint32, channels)
	for i := range volumes {
		volumes[i] = uint32(level * maxVolume)
	}

	return volumes
}

// averages all channels, capped at 1.0 since PulseAudio allows amplifying streams past 100%
func parseChannelVolumes(volumes []uint32) float32 {
	if len(volumes) == 0 {
		return 0
	}

	var total uint32
	for _, volume := range volumes {
		total += volume
	}

	level := float32(total) / float32(len(volumes)) / float32(maxVolume)
	if level > 1 {
		level = 1
	}

	return level
}
