package hostentry

import (
	"net"
	"testing"

	"github.com/stretchr/testify/suite"
)

type EntryTestSuite struct {
	suite.Suite
}

func (s *EntryTestSuite) TestNew() {
	testCases := []struct {
		name     string
		rec      Record
		expName  string
		expAlias []string
		expAddrs []net.IP
	}{
		{
			name: "full record",
			rec: Record{
				Name:    "www.example.test",
				Aliases: []string{"example.test", "web.example.test"},
				Addrs:   []net.IP{net.ParseIP("192.0.2.10"), net.ParseIP("2001:db8::10")},
			},
			expName:  "www.example.test",
			expAlias: []string{"example.test", "web.example.test"},
			expAddrs: []net.IP{net.ParseIP("192.0.2.10"), net.ParseIP("2001:db8::10")},
		},
		{
			name:    "no aliases, no addresses",
			rec:     Record{Name: "lonely.example.test"},
			expName: "lonely.example.test",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			e := New(tc.rec)
			s.Equal(tc.expName, e.Name())
			s.Equal(tc.expAlias, e.Aliases())
			s.Equal(tc.expAddrs, e.Addresses())
		})
	}
}

func (s *EntryTestSuite) TestNewCopiesRecordSlices() {
	aliases := []string{"a.example.test"}
	addrs := []net.IP{net.ParseIP("192.0.2.1")}
	e := New(Record{Name: "a", Aliases: aliases, Addrs: addrs})

	aliases[0] = "mutated"
	addrs[0] = net.ParseIP("198.51.100.9")

	s.Equal([]string{"a.example.test"}, e.Aliases())
	s.Equal([]net.IP{net.ParseIP("192.0.2.1")}, e.Addresses())
}

func (s *EntryTestSuite) TestOrderPreserved() {
	e := New(Record{
		Name:  "multi.example.test",
		Addrs: []net.IP{net.ParseIP("192.0.2.3"), net.ParseIP("192.0.2.1"), net.ParseIP("192.0.2.2")},
	})
	s.Equal(net.ParseIP("192.0.2.3"), e.Addresses()[0])
	s.Equal(net.ParseIP("192.0.2.2"), e.Addresses()[2])
}

func TestEntryTestSuite(t *testing.T) {
	suite.Run(t, new(EntryTestSuite))
}
