package nameservice

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/lc/hostd/internal/resolver"
)

type mockExchanger struct {
	mock.Mock
}

func (m *mockExchanger) ExchangeContext(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, time.Duration, error) {
	args := m.Called(ctx, msg, addr)
	if resp := args.Get(0); resp != nil {
		return resp.(*dns.Msg), args.Get(1).(time.Duration), args.Error(2)
	}
	return nil, args.Get(1).(time.Duration), args.Error(2)
}

type NameserviceTestSuite struct {
	suite.Suite
	client    *Client
	exchanger *mockExchanger
}

func (s *NameserviceTestSuite) SetupTest() {
	s.exchanger = new(mockExchanger)
	s.client = New(5 * time.Second)
	s.client.Client = s.exchanger
}

func matchQuery(qtype uint16, name string) interface{} {
	return mock.MatchedBy(func(msg *dns.Msg) bool {
		return len(msg.Question) > 0 &&
			msg.Question[0].Qtype == qtype &&
			msg.Question[0].Name == dns.Fqdn(name)
	})
}

func aRecord(owner, ip string) dns.RR {
	return &dns.A{
		Hdr: dns.RR_Header{Name: dns.Fqdn(owner), Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300},
		A:   net.ParseIP(ip).To4(),
	}
}

func aaaaRecord(owner, ip string) dns.RR {
	return &dns.AAAA{
		Hdr:  dns.RR_Header{Name: dns.Fqdn(owner), Rrtype: dns.TypeAAAA, Class: dns.ClassINET, Ttl: 300},
		AAAA: net.ParseIP(ip),
	}
}

func cnameRecord(owner, target string) dns.RR {
	return &dns.CNAME{
		Hdr:    dns.RR_Header{Name: dns.Fqdn(owner), Rrtype: dns.TypeCNAME, Class: dns.ClassINET, Ttl: 300},
		Target: dns.Fqdn(target),
	}
}

func emptyResponse(rcode int) *dns.Msg {
	resp := new(dns.Msg)
	resp.Rcode = rcode
	return resp
}

func (s *NameserviceTestSuite) TestNewOptions() {
	c := New(
		5*time.Second,
		WithNameservers([]string{"9.9.9.9:53"}),
		WithTimeout(2*time.Second),
		WithRetries(3),
	)
	s.Equal([]string{"9.9.9.9:53"}, c.Nameservers)
	s.Equal(2*time.Second, c.Timeout)
	s.Equal(uint(3), c.Retries)
}

func (s *NameserviceTestSuite) TestLookupHostPlain() {
	aResp := new(dns.Msg)
	aResp.Answer = []dns.RR{aRecord("example.com", "93.184.216.34")}

	aaaaResp := new(dns.Msg)
	aaaaResp.Answer = []dns.RR{aaaaRecord("example.com", "2606:2800:220:1:248:1893:25c8:1946")}

	s.exchanger.On("ExchangeContext", mock.Anything, matchQuery(dns.TypeA, "example.com"), mock.Anything).
		Return(aResp, time.Millisecond, nil)
	s.exchanger.On("ExchangeContext", mock.Anything, matchQuery(dns.TypeAAAA, "example.com"), mock.Anything).
		Return(aaaaResp, time.Millisecond, nil)

	rec, err := s.client.LookupHost(context.Background(), "example.com")
	s.Require().NoError(err)
	s.Equal("example.com", rec.Name)
	s.Empty(rec.Aliases)
	s.Len(rec.Addrs, 2)
}

func (s *NameserviceTestSuite) TestLookupHostCanonicalFromCNAME() {
	aResp := new(dns.Msg)
	aResp.Answer = []dns.RR{
		cnameRecord("www.example.com", "edge.example.net"),
		aRecord("edge.example.net", "192.0.2.5"),
	}

	s.exchanger.On("ExchangeContext", mock.Anything, matchQuery(dns.TypeA, "www.example.com"), mock.Anything).
		Return(aResp, time.Millisecond, nil)
	s.exchanger.On("ExchangeContext", mock.Anything, matchQuery(dns.TypeAAAA, "www.example.com"), mock.Anything).
		Return(emptyResponse(dns.RcodeSuccess), time.Millisecond, nil)

	rec, err := s.client.LookupHost(context.Background(), "www.example.com")
	s.Require().NoError(err)
	s.Equal("edge.example.net", rec.Name)
	s.Equal([]string{"www.example.com"}, rec.Aliases)
	s.Len(rec.Addrs, 1)
}

func (s *NameserviceTestSuite) TestLookupHostEmpty() {
	_, err := s.client.LookupHost(context.Background(), "  ")
	s.Require().Error(err)

	var se *resolver.SystemError
	s.Require().ErrorAs(err, &se)
	s.Equal(resolver.CodeHostNotFound, se.Code)
	s.ErrorIs(err, ErrEmptyHostname)
}

func (s *NameserviceTestSuite) TestLookupHostFailureCodes() {
	testCases := []struct {
		name     string
		rcode    int
		expected int
	}{
		{"nxdomain", dns.RcodeNameError, resolver.CodeHostNotFound},
		{"servfail", dns.RcodeServerFailure, resolver.CodeTryAgain},
		{"refused", dns.RcodeRefused, resolver.CodeNoRecovery},
		{"noerror without answers", dns.RcodeSuccess, resolver.CodeNoData},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			exchanger := new(mockExchanger)
			client := New(5 * time.Second)
			client.Client = exchanger

			exchanger.On("ExchangeContext", mock.Anything, mock.Anything, mock.Anything).
				Return(emptyResponse(tc.rcode), time.Millisecond, nil)

			_, err := client.LookupHost(context.Background(), "example.com")
			s.Require().Error(err)

			var se *resolver.SystemError
			s.Require().ErrorAs(err, &se)
			s.Equal(tc.expected, se.Code)
		})
	}
}

func (s *NameserviceTestSuite) TestLookupHostNetworkErrorIsTransient() {
	s.exchanger.On("ExchangeContext", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, time.Duration(0), errors.New("i/o timeout"))

	_, err := s.client.LookupHost(context.Background(), "example.com")
	s.Require().Error(err)

	var se *resolver.SystemError
	s.Require().ErrorAs(err, &se)
	s.Equal(resolver.CodeTryAgain, se.Code)
}

func (s *NameserviceTestSuite) TestLookupHostRetries() {
	s.client.Retries = 1

	aResp := new(dns.Msg)
	aResp.Answer = []dns.RR{aRecord("example.com", "192.0.2.1")}

	// First attempt per query fails, the retry succeeds for A and keeps
	// failing for AAAA; one address is still a success overall.
	s.exchanger.On("ExchangeContext", mock.Anything, matchQuery(dns.TypeA, "example.com"), mock.Anything).
		Return(nil, time.Duration(0), errors.New("i/o timeout")).Once()
	s.exchanger.On("ExchangeContext", mock.Anything, matchQuery(dns.TypeA, "example.com"), mock.Anything).
		Return(aResp, time.Millisecond, nil)
	s.exchanger.On("ExchangeContext", mock.Anything, matchQuery(dns.TypeAAAA, "example.com"), mock.Anything).
		Return(nil, time.Duration(0), errors.New("i/o timeout"))

	rec, err := s.client.LookupHost(context.Background(), "example.com")
	s.Require().NoError(err)
	s.Len(rec.Addrs, 1)
}

func (s *NameserviceTestSuite) TestLookupAddr() {
	ptrResp := new(dns.Msg)
	ptrResp.Answer = []dns.RR{
		&dns.PTR{
			Hdr: dns.RR_Header{Name: "1.2.0.192.in-addr.arpa.", Rrtype: dns.TypePTR, Class: dns.ClassINET, Ttl: 300},
			Ptr: "host.example.com.",
		},
	}

	s.exchanger.On("ExchangeContext", mock.Anything, matchQuery(dns.TypePTR, "1.2.0.192.in-addr.arpa."), mock.Anything).
		Return(ptrResp, time.Millisecond, nil)

	name, err := s.client.LookupAddr(context.Background(), net.ParseIP("192.0.2.1"))
	s.Require().NoError(err)
	s.Equal("host.example.com", name)
}

func (s *NameserviceTestSuite) TestLookupAddrNoPointer() {
	s.exchanger.On("ExchangeContext", mock.Anything, mock.Anything, mock.Anything).
		Return(emptyResponse(dns.RcodeSuccess), time.Millisecond, nil)

	_, err := s.client.LookupAddr(context.Background(), net.ParseIP("192.0.2.1"))
	s.Require().Error(err)

	var se *resolver.SystemError
	s.Require().ErrorAs(err, &se)
	s.Equal(resolver.CodeHostNotFound, se.Code)
	s.ErrorIs(err, ErrNoPointer)
}

func (s *NameserviceTestSuite) TestLookupAddrNXDomain() {
	s.exchanger.On("ExchangeContext", mock.Anything, mock.Anything, mock.Anything).
		Return(emptyResponse(dns.RcodeNameError), time.Millisecond, nil)

	_, err := s.client.LookupAddr(context.Background(), net.ParseIP("203.0.113.55"))
	s.Require().Error(err)

	var se *resolver.SystemError
	s.Require().ErrorAs(err, &se)
	s.Equal(resolver.CodeHostNotFound, se.Code)
}

func (s *NameserviceTestSuite) TestGetNameserver() {
	s.Equal(_defaultNameserver, s.client.getNameserver())

	s.client.Nameservers = []string{"9.9.9.9:53"}
	s.Equal("9.9.9.9:53", s.client.getNameserver())
}

func TestNameserviceTestSuite(t *testing.T) {
	suite.Run(t, new(NameserviceTestSuite))
}
