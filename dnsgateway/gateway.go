package dnsgateway

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/miekg/dns"

	"github.com/hierreg/naming-registry-backend/interfaces"
	"github.com/hierreg/naming-registry-backend/namehash"
)

// Record keys consulted per query type.
const (
	RecordKeyA    = "dns.A"
	RecordKeyAAAA = "dns.AAAA"
	RecordKeyTXT  = "dns.TXT"
	RecordKeyTTL  = "dns.ttl"
)

// DefaultTTL applies when a name carries no dns.ttl record.
const DefaultTTL uint32 = 300

// Gateway answers A, AAAA, and TXT queries from registry records.
type Gateway struct {
	reader interfaces.ProxyReader
	server *dns.Server
	log    *slog.Logger
}

func New(listenAddr string, reader interfaces.ProxyReader, log *slog.Logger) *Gateway {
	g := &Gateway{reader: reader, log: log}

	mux := dns.NewServeMux()
	mux.HandleFunc(".", g.handleQuery)
	g.server = &dns.Server{Addr: listenAddr, Net: "udp", Handler: mux}

	return g
}

// ListenAndServe runs the UDP listener until Shutdown is called.
func (g *Gateway) ListenAndServe() error {
	g.log.Info("dns gateway started", "listenAddr", g.server.Addr)
	return g.server.ListenAndServe()
}

// Shutdown stops the listener.
func (g *Gateway) Shutdown(ctx context.Context) error {
	return g.server.ShutdownContext(ctx)
}

func (g *Gateway) handleQuery(w dns.ResponseWriter, r *dns.Msg) {
	msg := new(dns.Msg)
	msg.SetReply(r)
	msg.Authoritative = true

	var known bool
	for _, q := range r.Question {
		if g.answer(msg, q) {
			known = true
		}
	}
	// A name no registry holds is NXDOMAIN; a held name without matching
	// records answers empty.
	if !known {
		msg.Rcode = dns.RcodeNameError
	}

	if err := w.WriteMsg(msg); err != nil {
		g.log.Error("failed to write dns response", "err", err)
	}
}

func (g *Gateway) answer(msg *dns.Msg, q dns.Question) bool {
	name := strings.ToLower(strings.TrimSuffix(q.Name, "."))
	id := namehash.Name(name)

	if g.reader.RegistryOf(id) == (common.Address{}) {
		return false
	}

	_, _, values := g.reader.GetData([]string{RecordKeyA, RecordKeyAAAA, RecordKeyTXT, RecordKeyTTL}, id)
	ttl := parseTTL(values[3])

	header := dns.RR_Header{Name: q.Name, Class: dns.ClassINET, Ttl: ttl}

	switch q.Qtype {
	case dns.TypeA:
		header.Rrtype = dns.TypeA
		for _, raw := range splitValues(values[0]) {
			ip := net.ParseIP(raw)
			if ip == nil || ip.To4() == nil {
				g.log.Warn("invalid A record value", "name", name, "value", raw)
				continue
			}
			msg.Answer = append(msg.Answer, &dns.A{Hdr: header, A: ip.To4()})
		}

	case dns.TypeAAAA:
		header.Rrtype = dns.TypeAAAA
		for _, raw := range splitValues(values[1]) {
			ip := net.ParseIP(raw)
			if ip == nil || ip.To4() != nil {
				g.log.Warn("invalid AAAA record value", "name", name, "value", raw)
				continue
			}
			msg.Answer = append(msg.Answer, &dns.AAAA{Hdr: header, AAAA: ip.To16()})
		}

	case dns.TypeTXT:
		header.Rrtype = dns.TypeTXT
		for _, raw := range splitValues(values[2]) {
			msg.Answer = append(msg.Answer, &dns.TXT{Hdr: header, Txt: []string{raw}})
		}
	}

	return true
}

// splitValues splits a record value holding several entries separated by
// newlines.
func splitValues(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, "\n")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseTTL(value string) uint32 {
	if value == "" {
		return DefaultTTL
	}
	ttl, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return DefaultTTL
	}
	return uint32(ttl)
}
