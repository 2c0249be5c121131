package winmix

import "fmt"

// locateEndpoints acquires the endpoints one enumeration works on. The caller owns
// the returned endpoints and must release them.
func (wm *WinMix) locateEndpoints() ([]Endpoint, error) {
	if !wm.config.AllEndpoints {
		endpoint, err := wm.provider.DefaultRenderEndpoint()
		if err != nil {
			wm.endpointLogger.Warnw("Failed to get default render endpoint", "error", err)
			return nil, fmt.Errorf("%w: get default render endpoint: %w", ErrDeviceUnavailable, err)
		}

		wm.endpointLogger.Debugw("Located default render endpoint", "endpointID", endpoint.ID())
		return []Endpoint{endpoint}, nil
	}

	endpoints, err := wm.provider.ActiveRenderEndpoints()
	if err != nil {
		wm.endpointLogger.Warnw("Failed to enumerate active render endpoints", "error", err)
		return nil, fmt.Errorf("%w: enumerate active render endpoints: %w", ErrDeviceUnavailable, err)
	}

	if len(endpoints) == 0 {
		wm.endpointLogger.Warn("No active render endpoints")
		return nil, fmt.Errorf("%w: no active render endpoints", ErrDeviceUnavailable)
	}

	wm.endpointLogger.Debugw("Located active render endpoints", "count", len(endpoints))
	return endpoints, nil
}

func releaseEndpoints(endpoints []Endpoint) {
	for _, endpoint := range endpoints {
		endpoint.Release()
	}
}
