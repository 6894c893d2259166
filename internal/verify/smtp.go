package verify

import (
	"bufio"
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// ProbeOutcome is the tri-state classification of an SMTP RCPT probe, plus
// a zero value for probes that never ran.
type ProbeOutcome int

const (
	ProbeNotRun ProbeOutcome = iota
	// ProbeAccepted means RCPT TO was answered with 250 or 251.
	ProbeAccepted
	// ProbeRejected means the server answered negatively at some stage.
	ProbeRejected
	// ProbeInconclusive means the connection failed, timed out or broke.
	ProbeInconclusive
)

func (o ProbeOutcome) String() string {
	switch o {
	case ProbeAccepted:
		return "accepted"
	case ProbeRejected:
		return "rejected"
	case ProbeInconclusive:
		return "inconclusive"
	default:
		return "not_probed"
	}
}

// MarshalText renders the outcome as its string form in JSON.
func (o ProbeOutcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *ProbeOutcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "accepted":
		*o = ProbeAccepted
	case "rejected":
		*o = ProbeRejected
	case "inconclusive":
		*o = ProbeInconclusive
	case "not_probed", "":
		*o = ProbeNotRun
	default:
		return fmt.Errorf("unknown probe outcome %q", b)
	}
	return nil
}

// Conversation stages, used in ProbeResult.Stage.
const (
	StageConnect  = "connect"
	StageGreeting = "greeting"
	StageHelo     = "helo"
	StageMailFrom = "mail_from"
	StageRcptTo   = "rcpt_to"
)

// ProbeResult contains the result of one SMTP conversation.
type ProbeResult struct {
	Outcome ProbeOutcome
	// Code is the last reply code read, 0 if none was read.
	Code  int
	Stage string
	Reply string
	Err   error
}

// Reason renders a short human-readable explanation of a non-accepted probe.
func (r ProbeResult) Reason() string {
	switch r.Outcome {
	case ProbeAccepted, ProbeNotRun:
		return ""
	case ProbeInconclusive:
		return fmt.Sprintf("SMTP %s failed: %v", r.Stage, r.Err)
	}
	if r.Stage == StageRcptTo {
		return fmt.Sprintf("SMTP recipient rejected: %d %s", r.Code, DescribeReply(r.Code).Description)
	}
	return fmt.Sprintf("SMTP %s error: %d %s", r.Stage, r.Code, DescribeReply(r.Code).Description)
}

// ContextDialer dials a TCP connection. *net.Dialer and SOCKS5 dialers from
// golang.org/x/net/proxy satisfy it.
type ContextDialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// ProxyConfig contains SOCKS5 proxy configuration
type ProxyConfig struct {
	Address  string // host:port
	Username string
	Password string
}

// SMTPProbe performs the scripted HELO / MAIL FROM / RCPT TO / QUIT
// conversation against a mail exchanger. It never sends DATA.
type SMTPProbe struct {
	Dialer   ContextDialer
	HeloName string
	MailFrom string
	Port     string
	Timeout  time.Duration
}

// NewSMTPProbe builds a probe. When proxyConfig has an address every
// connection goes through that SOCKS5 proxy, with no direct fallback.
func NewSMTPProbe(heloName, mailFrom, port string, timeout time.Duration, proxyConfig *ProxyConfig) (*SMTPProbe, error) {
	p := &SMTPProbe{
		Dialer:   &net.Dialer{},
		HeloName: heloName,
		MailFrom: mailFrom,
		Port:     port,
		Timeout:  timeout,
	}
	if proxyConfig == nil || proxyConfig.Address == "" {
		return p, nil
	}

	var auth *proxy.Auth
	if proxyConfig.Username != "" && proxyConfig.Password != "" {
		auth = &proxy.Auth{
			User:     proxyConfig.Username,
			Password: proxyConfig.Password,
		}
	}
	dialer, err := proxy.SOCKS5("tcp", proxyConfig.Address, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	cd, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("SOCKS5 dialer for %s does not support contexts", proxyConfig.Address)
	}
	p.Dialer = cd
	return p, nil
}

func (p *SMTPProbe) timeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultTimeout
	}
	return p.Timeout
}

func (p *SMTPProbe) heloName() string {
	if p.HeloName == "" {
		return "localhost"
	}
	return p.HeloName
}

func (p *SMTPProbe) mailFrom() string {
	if p.MailFrom == "" {
		return "verify@" + p.heloName()
	}
	return p.MailFrom
}

func (p *SMTPProbe) port() string {
	if p.Port == "" {
		return "25"
	}
	return p.Port
}

// Probe asks mxHost whether it accepts email as a recipient. Transport
// failures yield ProbeInconclusive; negative replies yield ProbeRejected.
func (p *SMTPProbe) Probe(ctx context.Context, email, mxHost string) ProbeResult {
	timeout := p.timeout()

	dialer := p.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	conn, err := dialer.DialContext(dialCtx, "tcp", net.JoinHostPort(mxHost, p.port()))
	cancel()
	if err != nil {
		return ProbeResult{Outcome: ProbeInconclusive, Stage: StageConnect, Err: err}
	}
	defer conn.Close()

	// Abandon the socket as soon as the caller gives up.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	s := &session{conn: conn, r: bufio.NewReader(conn), timeout: timeout}
	defer s.quit()

	if res, ok := s.expect(StageGreeting, "", 220); !ok {
		return res
	}
	if res, ok := s.expect(StageHelo, "HELO "+p.heloName(), 250); !ok {
		return res
	}
	if res, ok := s.expect(StageMailFrom, "MAIL FROM:<"+p.mailFrom()+">", 250); !ok {
		return res
	}

	code, reply, err := s.exchange("RCPT TO:<" + email + ">")
	if err != nil {
		return ProbeResult{Outcome: ProbeInconclusive, Stage: StageRcptTo, Err: err}
	}
	res := ProbeResult{Outcome: ProbeRejected, Code: code, Stage: StageRcptTo, Reply: reply}
	if code == 250 || code == 251 {
		res.Outcome = ProbeAccepted
	}
	return res
}

// DetectCatchAll probes a random, almost certainly non-existent mailbox on
// domain. An accepted probe means the server accepts every recipient, so a
// positive RCPT for a real guess carries little information.
func (p *SMTPProbe) DetectCatchAll(ctx context.Context, domain, mxHost string) (bool, ProbeResult) {
	probeEmail := fmt.Sprintf("%s@%s", generateRandomString(15), domain)
	res := p.Probe(ctx, probeEmail, mxHost)
	return res.Outcome == ProbeAccepted, res
}

// session is one SMTP conversation over an established connection.
type session struct {
	conn    net.Conn
	r       *bufio.Reader
	timeout time.Duration
	broken  bool
}

// expect sends cmd (if any) and requires the reply code want.
func (s *session) expect(stage, cmd string, want int) (ProbeResult, bool) {
	code, reply, err := s.exchange(cmd)
	if err != nil {
		return ProbeResult{Outcome: ProbeInconclusive, Stage: stage, Err: err}, false
	}
	if code != want {
		return ProbeResult{Outcome: ProbeRejected, Code: code, Stage: stage, Reply: reply}, false
	}
	return ProbeResult{}, true
}

func (s *session) exchange(cmd string) (int, string, error) {
	if cmd != "" {
		if err := s.writeLine(cmd); err != nil {
			return 0, "", err
		}
	}
	return s.readReply()
}

func (s *session) writeLine(line string) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
		s.broken = true
		return err
	}
	if _, err := s.conn.Write([]byte(line + "\r\n")); err != nil {
		s.broken = true
		return err
	}
	return nil
}

// readReply reads a possibly multi-line reply ("250-..." continuation lines
// up to the final "250 ...") and returns the code of the final line.
func (s *session) readReply() (int, string, error) {
	var lines []string
	for i := 0; i < 128; i++ {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
			s.broken = true
			return 0, "", err
		}
		line, err := s.r.ReadString('\n')
		if err != nil {
			s.broken = true
			return 0, "", err
		}
		line = strings.TrimRight(line, "\r\n")
		lines = append(lines, line)
		if len(line) < 4 || line[3] != '-' {
			break
		}
	}
	last := lines[len(lines)-1]
	return parseSMTPCode(last), strings.Join(lines, "\n"), nil
}

// quit sends QUIT without waiting for its reply.
func (s *session) quit() {
	if s.broken {
		return
	}
	_ = s.writeLine("QUIT")
}

// parseSMTPCode extracts the 3-digit SMTP code from a response
func parseSMTPCode(response string) int {
	if len(response) < 3 {
		return 0
	}

	var code int
	if _, err := fmt.Sscanf(response[:3], "%d", &code); err != nil {
		return 0
	}
	return code
}

// generateRandomString creates a random lowercase alphanumeric string of specified length
func generateRandomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, length)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			b[i] = charset[i%len(charset)]
			continue
		}
		b[i] = charset[num.Int64()]
	}
	return string(b)
}
