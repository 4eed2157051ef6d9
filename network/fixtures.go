package network

import (
	"github.com/networkteam/e2ekit/browser"
	"github.com/networkteam/e2ekit/fixture"
)

var (
	RoutersKey        = fixture.NewKey[*Routers]("routers")
	MockNetworkKey    = fixture.NewKey[StubFunc]("mockNetwork")
	BlockAnalyticsKey = fixture.NewKey[struct{}]("blockAnalytics")
	NetworkLogsKey    = fixture.NewKey[*RequestLog]("networkLogs")
)

// Fixtures returns the network fixtures. Relative stub patterns resolve
// against baseURL.
//
// blockAnalytics is opt-in: it only takes effect in tests that request it.
// Stubs and routes vanish with the page, so no fixture needs to unroute.
func Fixtures(baseURL string) *fixture.Set {
	set := fixture.NewSet("network")

	fixture.Provide(set, RoutersKey, func(s *fixture.Scope) (*Routers, fixture.Teardown, error) {
		return NewRouters(baseURL, s.Logger()), nil, nil
	})

	fixture.Provide(set, MockNetworkKey, func(s *fixture.Scope) (StubFunc, fixture.Teardown, error) {
		routers, err := RoutersKey.Resolve(s)
		if err != nil {
			return nil, nil, err
		}
		return routers.Stub, nil, nil
	}, RoutersKey)

	fixture.Provide(set, BlockAnalyticsKey, func(s *fixture.Scope) (struct{}, fixture.Teardown, error) {
		page, err := browser.PageKey.Resolve(s)
		if err != nil {
			return struct{}{}, nil, err
		}
		routers, err := RoutersKey.Resolve(s)
		if err != nil {
			return struct{}{}, nil, err
		}
		return struct{}{}, nil, routers.BlockAnalytics(page)
	}, browser.PageKey, RoutersKey)

	fixture.Provide(set, NetworkLogsKey, func(s *fixture.Scope) (*RequestLog, fixture.Teardown, error) {
		page, err := browser.PageKey.Resolve(s)
		if err != nil {
			return nil, nil, err
		}
		log := NewRequestLog()
		log.Attach(page)
		return log, func() error {
			log.Stop()
			return nil
		}, nil
	}, browser.PageKey)

	return set
}
