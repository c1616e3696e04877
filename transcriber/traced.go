package transcriber

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"
)

type NetworkMetrics struct {
	DNS         time.Duration
	ConnWait    time.Duration
	TCP         time.Duration
	TLS         time.Duration
	ReqHeaders  time.Duration
	ReqBody     time.Duration
	TTFB        time.Duration
	Total       time.Duration
	ConnReused  bool
	TLSProtocol string
}

func (m *NetworkMetrics) Sum() time.Duration {
	return m.ConnWait + m.DNS + m.TCP + m.TLS + m.ReqHeaders + m.ReqBody + m.TTFB
}

type metricsKey struct{}

// withMetrics asks the traced transport to fill m for requests made with ctx.
func withMetrics(ctx context.Context, m *NetworkMetrics) context.Context {
	return context.WithValue(ctx, metricsKey{}, m)
}

// tracedTransport records connection timings for requests whose context
// carries a *NetworkMetrics.
type tracedTransport struct {
	base http.RoundTripper
}

func newTracedClient() *http.Client {
	return &http.Client{
		Transport: &tracedTransport{base: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        4,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		}},
	}
}

func (t *tracedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m, _ := req.Context().Value(metricsKey{}).(*NetworkMetrics)
	if m == nil {
		return t.base.RoundTrip(req)
	}

	var getConnStart, dnsStart, tcpStart, tlsStart time.Time
	var gotConn, wroteHeaders, wroteRequest time.Time

	trace := &httptrace.ClientTrace{
		GetConn: func(_ string) { getConnStart = time.Now() },
		GotConn: func(info httptrace.GotConnInfo) {
			gotConn = time.Now()
			m.ConnWait = gotConn.Sub(getConnStart)
			m.ConnReused = info.Reused
		},
		DNSStart:          func(_ httptrace.DNSStartInfo) { dnsStart = time.Now() },
		DNSDone:           func(_ httptrace.DNSDoneInfo) { m.DNS = time.Since(dnsStart) },
		ConnectStart:      func(_, _ string) { tcpStart = time.Now() },
		ConnectDone:       func(_, _ string, _ error) { m.TCP = time.Since(tcpStart) },
		TLSHandshakeStart: func() { tlsStart = time.Now() },
		TLSHandshakeDone: func(cs tls.ConnectionState, _ error) {
			m.TLS = time.Since(tlsStart)
			m.TLSProtocol = cs.NegotiatedProtocol
		},
		WroteHeaders: func() {
			wroteHeaders = time.Now()
			m.ReqHeaders = wroteHeaders.Sub(gotConn)
		},
		WroteRequest: func(_ httptrace.WroteRequestInfo) {
			wroteRequest = time.Now()
			m.ReqBody = wroteRequest.Sub(wroteHeaders)
		},
		GotFirstResponseByte: func() {
			m.TTFB = time.Since(wroteRequest)
		},
	}

	start := time.Now()
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))
	resp, err := t.base.RoundTrip(req)
	m.Total = time.Since(start)
	return resp, err
}

// warm opens a connection to url so the first upload skips the handshake.
func warm(client *http.Client, url string) time.Duration {
	m := &NetworkMetrics{}
	req, err := http.NewRequestWithContext(withMetrics(context.Background(), m), http.MethodHead, url, nil)
	if err != nil {
		return 0
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return m.TLS
}
