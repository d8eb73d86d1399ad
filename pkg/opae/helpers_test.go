package opae

import (
	"sync"
	"testing"
	"time"

	"github.com/fxnlabs/fpga/pkg/opae/driver"
	"github.com/fxnlabs/fpga/pkg/opae/driver/sim"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newSimRuntime(t *testing.T, topology []byte, opts ...Option) (*Runtime, *sim.Sim) {
	t.Helper()
	top, err := sim.ParseTopology(topology)
	require.NoError(t, err)
	s, err := sim.New(*top)
	require.NoError(t, err)
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	rt := NewRuntime(s, opts...)
	require.NoError(t, rt.Initialize(""))
	return rt, s
}

// requireNoLeaks checks that every native handle handed out was destroyed.
func requireNoLeaks(t *testing.T, s *sim.Sim) {
	t.Helper()
	require.Zero(t, s.LiveTokens(), "live tokens")
	require.Zero(t, s.LiveProperties(), "live properties")
}

type countingObserver struct {
	mu         sync.Mutex
	acquired   map[HandleKind]int
	released   map[HandleKind]int
	classified map[driver.ObjectType]int
	dropped    int
	enums      []enumEvent
}

type enumEvent struct {
	matches, fetched int
	err              error
}

func newCountingObserver() *countingObserver {
	return &countingObserver{
		acquired:   make(map[HandleKind]int),
		released:   make(map[HandleKind]int),
		classified: make(map[driver.ObjectType]int),
	}
}

func (o *countingObserver) HandleAcquired(kind HandleKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.acquired[kind]++
}

func (o *countingObserver) HandleReleased(kind HandleKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.released[kind]++
}

func (o *countingObserver) Enumerated(matches, fetched int, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.enums = append(o.enums, enumEvent{matches, fetched, err})
}

func (o *countingObserver) Classified(kind driver.ObjectType) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.classified[kind]++
}

func (o *countingObserver) Dropped(error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropped++
}

// mockDriver is a testify mock of driver.Driver.
type mockDriver struct {
	mock.Mock
}

var _ driver.Driver = (*mockDriver)(nil)

func (m *mockDriver) Initialize(configFile string) driver.Result {
	return m.Called(configFile).Get(0).(driver.Result)
}

func (m *mockDriver) GetProperties(token driver.Token) (driver.Properties, driver.Result) {
	args := m.Called(token)
	return args.Get(0).(driver.Properties), args.Get(1).(driver.Result)
}

func (m *mockDriver) CloneProperties(props driver.Properties) (driver.Properties, driver.Result) {
	args := m.Called(props)
	return args.Get(0).(driver.Properties), args.Get(1).(driver.Result)
}

func (m *mockDriver) DestroyProperties(props driver.Properties) driver.Result {
	return m.Called(props).Get(0).(driver.Result)
}

func (m *mockDriver) Enumerate(filters []driver.Properties, tokens []driver.Token) (uint32, driver.Result) {
	args := m.Called(filters, tokens)
	return args.Get(0).(uint32), args.Get(1).(driver.Result)
}

func (m *mockDriver) CloneToken(token driver.Token) (driver.Token, driver.Result) {
	args := m.Called(token)
	return args.Get(0).(driver.Token), args.Get(1).(driver.Result)
}

func (m *mockDriver) DestroyToken(token driver.Token) driver.Result {
	return m.Called(token).Get(0).(driver.Result)
}

func (m *mockDriver) GetUint(props driver.Properties, field driver.Field) (uint64, driver.Result) {
	args := m.Called(props, field)
	return args.Get(0).(uint64), args.Get(1).(driver.Result)
}

func (m *mockDriver) SetUint(props driver.Properties, field driver.Field, value uint64) driver.Result {
	return m.Called(props, field, value).Get(0).(driver.Result)
}

func (m *mockDriver) GetGUID(props driver.Properties) (driver.GUID, driver.Result) {
	args := m.Called(props)
	return args.Get(0).(driver.GUID), args.Get(1).(driver.Result)
}

func (m *mockDriver) SetGUID(props driver.Properties, guid driver.GUID) driver.Result {
	return m.Called(props, guid).Get(0).(driver.Result)
}

func (m *mockDriver) GetModel(props driver.Properties) (string, driver.Result) {
	args := m.Called(props)
	return args.String(0), args.Get(1).(driver.Result)
}

func (m *mockDriver) SetModel(props driver.Properties, model string) driver.Result {
	return m.Called(props, model).Get(0).(driver.Result)
}

func (m *mockDriver) GetBBSVersion(props driver.Properties) (driver.Version, driver.Result) {
	args := m.Called(props)
	return args.Get(0).(driver.Version), args.Get(1).(driver.Result)
}

func (m *mockDriver) SetBBSVersion(props driver.Properties, version driver.Version) driver.Result {
	return m.Called(props, version).Get(0).(driver.Result)
}

func (m *mockDriver) ErrStr(r driver.Result) string {
	return r.String()
}
