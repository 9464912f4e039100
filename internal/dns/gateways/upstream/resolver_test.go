package upstream

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockExchanger records the messages sent by the resolver.
type MockExchanger struct {
	mock.Mock
}

func (m *MockExchanger) Exchange(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, error) {
	args := m.Called(msg.Question[0].Name, msg.Question[0].Qtype, server)
	resp, _ := args.Get(0).(*dns.Msg)
	return resp, args.Error(1)
}

func reply(rcode int, answers ...dns.RR) *dns.Msg {
	m := new(dns.Msg)
	m.Rcode = rcode
	m.Answer = answers
	return m
}

func aRecord(t *testing.T, s string) dns.RR {
	t.Helper()
	rr, err := dns.NewRR(s)
	require.NoError(t, err)
	return rr
}

func TestNewResolver(t *testing.T) {
	_, err := NewResolver(Options{})
	assert.EqualError(t, err, errNoServersProvided)

	r, err := NewResolver(Options{Servers: []string{"127.0.0.1:53"}})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, r.timeout)
	assert.NotNil(t, r.exchange)
}

func TestHasAddress_Serial(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *MockExchanger)
		want  bool
		err   bool
	}{
		{
			name: "A answer",
			setup: func(m *MockExchanger) {
				m.On("Exchange", "ns.example.net.", dns.TypeA, "s1").
					Return(reply(dns.RcodeSuccess, aRecord(t, "ns.example.net. 300 IN A 192.0.2.53")), nil)
			},
			want: true,
		},
		{
			name: "AAAA only",
			setup: func(m *MockExchanger) {
				m.On("Exchange", "ns.example.net.", dns.TypeA, "s1").Return(reply(dns.RcodeSuccess), nil)
				m.On("Exchange", "ns.example.net.", dns.TypeAAAA, "s1").
					Return(reply(dns.RcodeSuccess, aRecord(t, "ns.example.net. 300 IN AAAA 2001:db8::53")), nil)
			},
			want: true,
		},
		{
			name: "NXDOMAIN",
			setup: func(m *MockExchanger) {
				m.On("Exchange", "ns.example.net.", mock.Anything, "s1").Return(reply(dns.RcodeNameError), nil)
			},
			want: false,
		},
		{
			name: "CNAME only is not an address",
			setup: func(m *MockExchanger) {
				m.On("Exchange", "ns.example.net.", mock.Anything, "s1").
					Return(reply(dns.RcodeSuccess, aRecord(t, "ns.example.net. 300 IN CNAME other.example.net.")), nil)
			},
			want: false,
		},
		{
			name: "first server fails",
			setup: func(m *MockExchanger) {
				m.On("Exchange", "ns.example.net.", dns.TypeA, "s1").Return(nil, errors.New("refused"))
				m.On("Exchange", "ns.example.net.", dns.TypeA, "s2").
					Return(reply(dns.RcodeSuccess, aRecord(t, "ns.example.net. 300 IN A 192.0.2.53")), nil)
			},
			want: true,
		},
		{
			name: "all servers fail",
			setup: func(m *MockExchanger) {
				m.On("Exchange", "ns.example.net.", dns.TypeA, "s1").Return(reply(dns.RcodeServerFailure), nil)
				m.On("Exchange", "ns.example.net.", dns.TypeA, "s2").Return(nil, errors.New("timeout"))
			},
			err: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &MockExchanger{}
			tt.setup(m)
			r, err := NewResolver(Options{Servers: []string{"s1", "s2"}, Exchange: m.Exchange})
			require.NoError(t, err)

			got, err := r.HasAddress(context.Background(), "NS.example.net")
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasAddress_Parallel(t *testing.T) {
	var calls atomic.Int32
	exchange := func(ctx context.Context, m *dns.Msg, server string) (*dns.Msg, error) {
		calls.Add(1)
		if server == "slow" {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		rr, _ := dns.NewRR(m.Question[0].Name + " 60 IN A 192.0.2.1")
		return reply(dns.RcodeSuccess, rr), nil
	}
	r, err := NewResolver(Options{Servers: []string{"slow", "fast"}, Parallel: true, Timeout: time.Second, Exchange: exchange})
	require.NoError(t, err)

	found, err := r.HasAddress(context.Background(), "ns.example.net.")
	require.NoError(t, err)
	assert.True(t, found)
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestHasAddress_ParallelTimeout(t *testing.T) {
	exchange := func(ctx context.Context, _ *dns.Msg, _ string) (*dns.Msg, error) {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return nil, ctx.Err()
	}
	r, err := NewResolver(Options{Servers: []string{"a", "b"}, Parallel: true, Timeout: 20 * time.Millisecond, Exchange: exchange})
	require.NoError(t, err)

	_, err = r.HasAddress(context.Background(), "ns.example.net.")
	assert.Error(t, err)
}

// startServer runs a UDP DNS server on loopback that knows a single A record.
func startServer(t *testing.T) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	mux := dns.NewServeMux()
	mux.HandleFunc(".", func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		q := req.Question[0]
		switch {
		case q.Name == "ns.example.net." && q.Qtype == dns.TypeA:
			rr, _ := dns.NewRR("ns.example.net. 300 IN A 192.0.2.53")
			m.Answer = append(m.Answer, rr)
		case q.Name != "ns.example.net.":
			m.Rcode = dns.RcodeNameError
		}
		_ = w.WriteMsg(m)
	})

	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: mux, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = srv.ActivateAndServe() }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("dns server did not start")
	}
	return pc.LocalAddr().String()
}

func TestHasAddress_AgainstServer(t *testing.T) {
	addr := startServer(t)
	r, err := NewResolver(Options{Servers: []string{addr}, Timeout: 2 * time.Second})
	require.NoError(t, err)

	found, err := r.HasAddress(context.Background(), "ns.example.net.")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = r.HasAddress(context.Background(), "missing.example.net.")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestHasAddress_SharesConcurrentLookups(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	exchange := func(ctx context.Context, m *dns.Msg, _ string) (*dns.Msg, error) {
		calls.Add(1)
		<-release
		rr, _ := dns.NewRR(m.Question[0].Name + " 60 IN A 192.0.2.1")
		return reply(dns.RcodeSuccess, rr), nil
	}
	r, err := NewResolver(Options{Servers: []string{"s1"}, Exchange: exchange})
	require.NoError(t, err)

	const n = 5
	results := make(chan bool, n)
	for i := 0; i < n; i++ {
		go func() {
			found, _ := r.HasAddress(context.Background(), "ns.example.net.")
			results <- found
		}()
	}
	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)

	for i := 0; i < n; i++ {
		assert.True(t, <-results)
	}
	assert.LessOrEqual(t, calls.Load(), int32(n))
}
