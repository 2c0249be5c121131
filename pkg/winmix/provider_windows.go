package winmix

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	wca "github.com/moutend/go-wca/pkg/wca"
	"go.uber.org/zap"
)

const (
	// any fixed GUID works, it tags the volume changes we make
	eventContextGUID = "{1ec920a1-7db8-44ba-9779-e5d28ed9f330}"

	// GetProcessId fails with the undocumented AUDCLNT_S_NO_CURRENT_PROCESS (0x889000D) for the system sounds
	// session, and for UWP apps - for which the pid is filled in regardless
	noCurrentProcessCode = "143196173"
)

type wcaProvider struct {
	logger *zap.SugaredLogger

	// passed along with volume and mute changes so other audio clients get notified
	eventCtx *ole.GUID

	workerCancel context.CancelFunc
	workerDone   chan struct{}
}

func newAudioProvider(logger *zap.SugaredLogger) (AudioProvider, error) {
	ctx, cancel := context.WithCancel(context.Background())

	p := &wcaProvider{
		logger:       logger.Named("wca"),
		eventCtx:     ole.NewGUID(eventContextGUID),
		workerCancel: cancel,
		workerDone:   make(chan struct{}),
	}

	ready := make(chan error, 1)
	go p.apartmentWorker(ctx, ready)

	if err := <-ready; err != nil {
		cancel()
		return nil, err
	}

	p.logger.Debug("Created WCA audio provider instance")

	return p, nil
}

// apartmentWorker keeps the process's COM multithreaded apartment alive on one locked OS thread.
// Any other thread then belongs to it implicitly, so enumeration and volume calls can happen on
// whichever goroutine the caller uses.
func (p *wcaProvider) apartmentWorker(ctx context.Context, ready chan<- error) {
	defer close(p.workerDone)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {

		// S_FALSE: this thread already joined the apartment
		const sFalse = 1
		oleError := &ole.OleError{}

		if !errors.As(err, &oleError) || oleError.Code() != sFalse {
			p.logger.Warnw("Failed to call CoInitializeEx", "error", err)
			ready <- fmt.Errorf("call CoInitializeEx: %w", err)
			return
		}

		p.logger.Debug("CoInitializeEx returned S_FALSE, apartment already joined")
	}
	defer ole.CoUninitialize()

	ready <- nil

	<-ctx.Done()
	p.logger.Debug("COM apartment worker stopping")
}

func (p *wcaProvider) Release() error {
	p.workerCancel()
	<-p.workerDone

	p.logger.Debug("Released WCA audio provider instance")
	return nil
}

func (p *wcaProvider) deviceEnumerator() (*wca.IMMDeviceEnumerator, error) {
	var mmDeviceEnumerator *wca.IMMDeviceEnumerator

	if err := wca.CoCreateInstance(
		wca.CLSID_MMDeviceEnumerator,
		0,
		wca.CLSCTX_ALL,
		wca.IID_IMMDeviceEnumerator,
		&mmDeviceEnumerator,
	); err != nil {
		p.logger.Warnw("Failed to call CoCreateInstance", "error", err)
		return nil, fmt.Errorf("call CoCreateInstance: %w", err)
	}

	return mmDeviceEnumerator, nil
}

func (p *wcaProvider) DefaultRenderEndpoint() (Endpoint, error) {
	mmDeviceEnumerator, err := p.deviceEnumerator()
	if err != nil {
		return nil, err
	}
	defer mmDeviceEnumerator.Release()

	var mmOutDevice *wca.IMMDevice

	if err := mmDeviceEnumerator.GetDefaultAudioEndpoint(wca.ERender, wca.EConsole, &mmOutDevice); err != nil {
		p.logger.Warnw("Failed to call GetDefaultAudioEndpoint (out)", "error", err)
		return nil, fmt.Errorf("call GetDefaultAudioEndpoint (out): %w", err)
	}

	return p.newEndpoint(mmOutDevice), nil
}

func (p *wcaProvider) ActiveRenderEndpoints() ([]Endpoint, error) {
	mmDeviceEnumerator, err := p.deviceEnumerator()
	if err != nil {
		return nil, err
	}
	defer mmDeviceEnumerator.Release()

	var deviceCollection *wca.IMMDeviceCollection

	if err := mmDeviceEnumerator.EnumAudioEndpoints(wca.ERender, wca.DEVICE_STATE_ACTIVE, &deviceCollection); err != nil {
		p.logger.Warnw("Failed to enumerate active audio endpoints", "error", err)
		return nil, fmt.Errorf("enumerate active audio endpoints: %w", err)
	}
	defer deviceCollection.Release()

	var deviceCount uint32

	if err := deviceCollection.GetCount(&deviceCount); err != nil {
		p.logger.Warnw("Failed to get device count from device collection", "error", err)
		return nil, fmt.Errorf("get device count from device collection: %w", err)
	}

	endpoints := make([]Endpoint, 0, deviceCount)

	for deviceIdx := uint32(0); deviceIdx < deviceCount; deviceIdx++ {
		var endpoint *wca.IMMDevice

		if err := deviceCollection.Item(deviceIdx, &endpoint); err != nil {
			p.logger.Warnw("Failed to get device from device collection",
				"deviceIdx", deviceIdx,
				"error", err)

			releaseEndpoints(endpoints)
			return nil, fmt.Errorf("get device %d from device collection: %w", deviceIdx, err)
		}

		endpoints = append(endpoints, p.newEndpoint(endpoint))
	}

	return endpoints, nil
}

type wcaEndpoint struct {
	provider *wcaProvider
	device   *wca.IMMDevice
	id       string
}

func (p *wcaProvider) newEndpoint(device *wca.IMMDevice) *wcaEndpoint {
	var endpointID string

	// only used for identification, so not fatal
	if err := device.GetId(&endpointID); err != nil {
		p.logger.Debugw("Failed to get endpoint ID", "error", err)
	}

	return &wcaEndpoint{
		provider: p,
		device:   device,
		id:       endpointID,
	}
}

func (e *wcaEndpoint) ID() string {
	return e.id
}

func (e *wcaEndpoint) SessionManager() (SessionManager, error) {
	var audioSessionManager2 *wca.IAudioSessionManager2

	if err := mmdActivateWorkaround(
		e.device,
		wca.IID_IAudioSessionManager2,
		wca.CLSCTX_ALL,
		nil,
		&audioSessionManager2,
	); err != nil {
		e.provider.logger.Warnw("Failed to activate endpoint as IAudioSessionManager2", "error", err)
		return nil, fmt.Errorf("activate endpoint: %w", err)
	}

	return &wcaSessionManager{
		provider: e.provider,
		manager:  audioSessionManager2,
	}, nil
}

func (e *wcaEndpoint) Release() {
	e.device.Release()
}

// mmdActivateWorkaround calls IMMDevice::Activate through the vtable: go-wca's own Activate
// passes the ctx argument incorrectly, which fails with E_INVALIDARG in a VM over RDP
func mmdActivateWorkaround(mmd *wca.IMMDevice, refIID *ole.GUID, ctx uint32, prop, obj interface{}) (err error) {
	objValue := reflect.ValueOf(obj).Elem()
	hr, _, _ := syscall.SyscallN(
		mmd.VTable().Activate,
		uintptr(unsafe.Pointer(mmd)),
		uintptr(unsafe.Pointer(refIID)),
		uintptr(ctx),
		0,
		objValue.Addr().Pointer())
	if hr != 0 {
		err = ole.NewError(hr)
	}
	return
}

type wcaSessionManager struct {
	provider *wcaProvider
	manager  *wca.IAudioSessionManager2
}

func (m *wcaSessionManager) Sessions() ([]SessionControl, error) {
	logger := m.provider.logger

	var sessionEnumerator *wca.IAudioSessionEnumerator

	if err := m.manager.GetSessionEnumerator(&sessionEnumerator); err != nil {
		logger.Warnw("Failed to get session enumerator", "error", err)
		return nil, fmt.Errorf("get session enumerator: %w", err)
	}
	defer sessionEnumerator.Release()

	var sessionCount int

	if err := sessionEnumerator.GetCount(&sessionCount); err != nil {
		logger.Warnw("Failed to get session count from session enumerator", "error", err)
		return nil, fmt.Errorf("get session count: %w", err)
	}

	logger.Debugw("Got session count from session enumerator", "count", sessionCount)

	sessions := make([]SessionControl, 0, sessionCount)

	for sessionIdx := 0; sessionIdx < sessionCount; sessionIdx++ {
		var audioSessionControl *wca.IAudioSessionControl

		if err := sessionEnumerator.GetSession(sessionIdx, &audioSessionControl); err != nil {
			logger.Warnw("Failed to get session from session enumerator, skipping it",
				"error", err,
				"sessionIdx", sessionIdx)

			continue
		}

		dispatch, err := audioSessionControl.QueryInterface(wca.IID_IAudioSessionControl2)

		// only the IAudioSessionControl2 is kept
		audioSessionControl.Release()

		if err != nil {
			logger.Warnw("Failed to query session's IAudioSessionControl2, skipping it",
				"error", err,
				"sessionIdx", sessionIdx)

			continue
		}

		sessions = append(sessions, &wcaSessionControl{
			provider: m.provider,
			control:  (*wca.IAudioSessionControl2)(unsafe.Pointer(dispatch)),
		})
	}

	return sessions, nil
}

func (m *wcaSessionManager) Release() {
	m.manager.Release()
}

type wcaSessionControl struct {
	provider *wcaProvider
	control  *wca.IAudioSessionControl2
}

func (s *wcaSessionControl) ProcessID() (uint32, error) {
	var pid uint32

	if err := s.control.GetProcessId(&pid); err != nil {

		// IsSystemSoundsSession returns S_OK (no error) only for the system sounds session
		if s.control.IsSystemSoundsSession() == nil {
			return 0, nil
		}

		// not the system sounds session, and not the UWP case either: we got a problem
		if !strings.Contains(err.Error(), noCurrentProcessCode) {
			return 0, fmt.Errorf("get session process id: %w", err)
		}
	}

	return pid, nil
}

func (s *wcaSessionControl) SimpleAudioVolume() (SimpleAudioVolume, error) {
	dispatch, err := s.control.QueryInterface(wca.IID_ISimpleAudioVolume)
	if err != nil {
		return nil, fmt.Errorf("query session ISimpleAudioVolume: %w", err)
	}

	simpleAudioVolume := (*wca.ISimpleAudioVolume)(unsafe.Pointer(dispatch))

	return &wcaSimpleVolume{
		eventCtx: s.provider.eventCtx,
		volume:   simpleAudioVolume,
		target:   fmt.Sprintf("wca:%p", simpleAudioVolume),
	}, nil
}

func (s *wcaSessionControl) Release() {
	s.control.Release()
}

type wcaSimpleVolume struct {
	eventCtx *ole.GUID
	volume   *wca.ISimpleAudioVolume
	target   string
}

func (v *wcaSimpleVolume) Target() string {
	return v.target
}

func (v *wcaSimpleVolume) MasterVolume() (float32, error) {
	var level float32

	if err := v.volume.GetMasterVolume(&level); err != nil {
		return 0, err
	}

	return level, nil
}

func (v *wcaSimpleVolume) SetMasterVolume(level float32) error {
	return v.volume.SetMasterVolume(level, v.eventCtx)
}

func (v *wcaSimpleVolume) Mute() (bool, error) {
	var muted bool

	if err := v.volume.GetMute(&muted); err != nil {
		return false, err
	}

	return muted, nil
}

func (v *wcaSimpleVolume) SetMute(mute bool) error {
	return v.volume.SetMute(mute, v.eventCtx)
}

func (v *wcaSimpleVolume) Release() {
	v.volume.Release()
}
