// Package winmixtest provides an in-memory audio provider and process locator for testing
// code built on top of winmix.
package winmixtest

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nik9play/winmix/pkg/winmix"
)

var (
	// ErrNoDevice is returned by a Provider without endpoints
	ErrNoDevice = errors.New("no audio endpoint")

	// ErrSessionEnded is returned by volume operations on an ended Session
	ErrSessionEnded = errors.New("audio session ended")
)

// Provider is an in-memory winmix.AudioProvider, create it with NewProvider.
// The first endpoint is the default one.
type Provider struct {
	Endpoints []*Endpoint

	// ActiveErr makes ActiveRenderEndpoints fail
	ActiveErr error

	outstanding atomic.Int64
	released    atomic.Bool
}

// NewProvider creates a provider with the given endpoints
func NewProvider(endpoints ...*Endpoint) *Provider {
	p := &Provider{Endpoints: endpoints}

	for _, endpoint := range endpoints {
		endpoint.provider = p
	}

	return p
}

// Outstanding returns how many endpoints, managers and session objects are currently acquired
// and not yet released. Volume controls are not counted, see Session.Bound.
func (p *Provider) Outstanding() int64 {
	return p.outstanding.Load()
}

// Released reports whether Release was called
func (p *Provider) Released() bool {
	return p.released.Load()
}

func (p *Provider) acquire() {
	p.outstanding.Add(1)
}

func (p *Provider) release() {
	p.outstanding.Add(-1)
}

func (p *Provider) DefaultRenderEndpoint() (winmix.Endpoint, error) {
	if len(p.Endpoints) == 0 {
		return nil, ErrNoDevice
	}

	return p.Endpoints[0].open(), nil
}

func (p *Provider) ActiveRenderEndpoints() ([]winmix.Endpoint, error) {
	if p.ActiveErr != nil {
		return nil, p.ActiveErr
	}

	endpoints := make([]winmix.Endpoint, 0, len(p.Endpoints))
	for _, endpoint := range p.Endpoints {
		endpoints = append(endpoints, endpoint.open())
	}

	return endpoints, nil
}

func (p *Provider) Release() error {
	p.released.Store(true)
	return nil
}

// Endpoint is an in-memory output device
type Endpoint struct {
	Name     string
	Sessions []*Session

	// ManagerErr makes SessionManager fail
	ManagerErr error

	// SessionsErr makes the session manager's Sessions fail
	SessionsErr error

	provider *Provider
}

// NewEndpoint creates an endpoint with the given sessions
func NewEndpoint(name string, sessions ...*Session) *Endpoint {
	return &Endpoint{Name: name, Sessions: sessions}
}

func (e *Endpoint) open() *endpointRef {
	e.provider.acquire()
	return &endpointRef{endpoint: e}
}

type endpointRef struct {
	endpoint *Endpoint
	once     sync.Once
}

func (r *endpointRef) ID() string {
	return r.endpoint.Name
}

func (r *endpointRef) SessionManager() (winmix.SessionManager, error) {
	if r.endpoint.ManagerErr != nil {
		return nil, r.endpoint.ManagerErr
	}

	r.endpoint.provider.acquire()
	return &managerRef{endpoint: r.endpoint}, nil
}

func (r *endpointRef) Release() {
	r.once.Do(r.endpoint.provider.release)
}

type managerRef struct {
	endpoint *Endpoint
	once     sync.Once
}

func (r *managerRef) Sessions() ([]winmix.SessionControl, error) {
	if r.endpoint.SessionsErr != nil {
		return nil, r.endpoint.SessionsErr
	}

	controls := make([]winmix.SessionControl, 0, len(r.endpoint.Sessions))
	for _, session := range r.endpoint.Sessions {
		r.endpoint.provider.acquire()
		controls = append(controls, &sessionRef{provider: r.endpoint.provider, session: session})
	}

	return controls, nil
}

func (r *managerRef) Release() {
	r.once.Do(r.endpoint.provider.release)
}

// Session is an in-memory per-program audio session
type Session struct {
	PID uint32

	// PIDErr makes ProcessID fail
	PIDErr error

	// BindErr makes binding the volume control fail
	BindErr error

	// TargetOverride replaces the control target, to simulate two session objects sharing one control
	TargetOverride string

	lock   sync.Mutex
	volume float32
	muted  bool
	ended  bool

	bound atomic.Int64
}

// NewSession creates a session for the given pid at full volume, unmuted
func NewSession(pid uint32) *Session {
	return &Session{PID: pid, volume: 1}
}

// End simulates the owning program stopping its stream; bound volume controls stop working
func (s *Session) End() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.ended = true
}

// State returns the session's current volume and mute state
func (s *Session) State() (float32, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.volume, s.muted
}

// Bound returns how many volume controls bound to this session are not yet released
func (s *Session) Bound() int64 {
	return s.bound.Load()
}

type sessionRef struct {
	provider *Provider
	session  *Session
	once     sync.Once
}

func (r *sessionRef) ProcessID() (uint32, error) {
	if r.session.PIDErr != nil {
		return 0, r.session.PIDErr
	}

	return r.session.PID, nil
}

func (r *sessionRef) SimpleAudioVolume() (winmix.SimpleAudioVolume, error) {
	if r.session.BindErr != nil {
		return nil, r.session.BindErr
	}

	target := r.session.TargetOverride
	if target == "" {
		target = fmt.Sprintf("fake:%p", r.session)
	}

	r.session.bound.Add(1)
	return &volumeRef{session: r.session, target: target}, nil
}

func (r *sessionRef) Release() {
	r.once.Do(r.provider.release)
}

type volumeRef struct {
	session *Session
	target  string
	once    sync.Once
}

func (v *volumeRef) Target() string {
	return v.target
}

func (v *volumeRef) MasterVolume() (float32, error) {
	v.session.lock.Lock()
	defer v.session.lock.Unlock()

	if v.session.ended {
		return 0, ErrSessionEnded
	}

	return v.session.volume, nil
}

func (v *volumeRef) SetMasterVolume(level float32) error {
	v.session.lock.Lock()
	defer v.session.lock.Unlock()

	if v.session.ended {
		return ErrSessionEnded
	}

	v.session.volume = level
	return nil
}

func (v *volumeRef) Mute() (bool, error) {
	v.session.lock.Lock()
	defer v.session.lock.Unlock()

	if v.session.ended {
		return false, ErrSessionEnded
	}

	return v.session.muted, nil
}

func (v *volumeRef) SetMute(mute bool) error {
	v.session.lock.Lock()
	defer v.session.lock.Unlock()

	if v.session.ended {
		return ErrSessionEnded
	}

	v.session.muted = mute
	return nil
}

func (v *volumeRef) Release() {
	v.once.Do(func() { v.session.bound.Add(-1) })
}

// Locator is an in-memory winmix.ProcessLocator. Unknown pids fail with winmix.ErrProcessExited.
type Locator struct {
	lock     sync.Mutex
	paths    map[uint32]string
	failures map[uint32]error
}

// NewLocator creates a locator that knows the given pid to path mapping
func NewLocator(paths map[uint32]string) *Locator {
	l := &Locator{paths: map[uint32]string{}, failures: map[uint32]error{}}

	for pid, path := range paths {
		l.paths[pid] = path
	}

	return l
}

// Exit forgets the given pid, as if its process exited
func (l *Locator) Exit(pid uint32) {
	l.lock.Lock()
	defer l.lock.Unlock()

	delete(l.paths, pid)
}

// Fail makes lookups of the given pid return err, as if the process couldn't be opened
func (l *Locator) Fail(pid uint32, err error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.failures[pid] = err
}

func (l *Locator) ExecutablePath(pid uint32) (string, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if err, ok := l.failures[pid]; ok {
		return "", fmt.Errorf("open process %d: %w", pid, err)
	}

	path, ok := l.paths[pid]
	if !ok {
		return "", fmt.Errorf("open process %d: %w", pid, winmix.ErrProcessExited)
	}

	return path, nil
}
