// Package xmppsession wraps a mellium.im/xmpp.Session with the connect,
// authenticate, and stanza-read-loop machinery spec.md §4.4 treats as an
// opaque external dependency: the session core never parses XML itself, it
// only reacts to the typed values this package pushes onto its Incoming
// channel.
//
// Grounded on other_examples/475f82b7 (meszmate-roster's internal/xmpp
// client, which dials, negotiates TLS+SASL+resource-bind and runs a
// single TokenReader-driven stanza loop against a real
// mellium.im/xmpp.Session and correlates IQ responses inside that same
// loop rather than with a second blocking read) and other_examples/89d1a053
// (mellium's own muc package, whose SendIQElement/UnmarshalIQElement shape
// SendIQ/UnmarshalIQ mirror at the call-site level, though the wire
// correlation here is this package's own).
package xmppsession

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"mellium.im/sasl"
	"mellium.im/xmlstream"
	"mellium.im/xmpp"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"

	"github.com/aparte-go/aparte/internal/apterr"
	"github.com/aparte-go/aparte/internal/model"
)

// IQTimeout bounds how long SendIQ waits for a response, per spec.md §4.4's
// 30-second IQ correlation timeout. readLoop is the only goroutine allowed
// to read sess.TokenReader(), so a result/error IQ it reads back can't be
// handed to mellium.im/xmpp.Session.SendIQElement's own internal wait (that
// call would be reading the same stream from a second goroutine); instead
// this package keeps its own id->chan map in Session.pending and readLoop
// delivers a matching response there directly.
const IQTimeout = 30 * time.Second

// Disconnected is pushed onto Incoming when the stream read loop ends,
// whether from a clean close or a transport error.
type Disconnected struct{ Err error }

// IncomingMessage is pushed for every chat/groupchat message with a body,
// including one unwrapped from a XEP-0280 carbon copy. Sent reports whether
// the wire stanza was a <sent/> carbon — a copy of a message the account
// authored from another resource, and so belongs on the Outgoing side of the
// conversation rather than Incoming.
type IncomingMessage struct {
	Msg  model.XmppMessage
	Sent bool
}

// IncomingPresence is pushed for every presence stanza, whether roster
// presence or MUC occupant presence. MucItem and StatusCodes are only
// populated when the stanza carries a XEP-0045
// http://jabber.org/protocol/muc#user <x/> child; the muc plugin reads
// them, and the roster plugin skips any presence whose MucItem is set.
type IncomingPresence struct {
	From        jid.JID
	Type        stanza.PresenceType
	Show        string
	MucItem     *MucItem
	StatusCodes []int
}

// MucItem is the <item/> of a MUC#user presence: the occupant's role,
// affiliation and real jid if disclosed. The nick is not copied here; it is
// From's resourcepart.
type MucItem struct {
	Affiliation string
	Role        string
	JID         jid.JID // real jid, zero value if not disclosed
}

// IncomingIQ is pushed for an unsolicited get/set IQ the session has no
// registered responder for (e.g. a roster push). No error response is sent
// for an IQ that no plugin answers.
type IncomingIQ struct {
	ID   string
	Type stanza.IQType
	From jid.JID
	Name xml.Name // payload element name, so a plugin can route on it
}

// iqReply is what readLoop hands back to the goroutine blocked in
// roundTrip once it reads a result/error IQ whose id matches a pending
// entry: the raw bytes of the response's payload (empty for a bodyless
// result) and, for an error IQ, the decoded condition as a Go error.
type iqReply struct {
	typ     stanza.IQType
	payload []byte
	err     error
}

// Session owns one TCP/TLS connection, SASL handshake and resource bind,
// plus the background goroutine draining stanzas off the wire.
type Session struct {
	mu        sync.RWMutex
	local     jid.JID
	password  string
	sess      *xmpp.Session
	connected bool
	incoming  chan any
	cancel    context.CancelFunc
	pending   map[string]chan iqReply // iq id -> waiting roundTrip call
}

// New creates a Session for the given bare-or-full jid. password may be
// supplied later by calling SetPassword before Connect if the credential was
// not known at construction time (spec.md §6's read-password flow).
func New(local jid.JID, password string) *Session {
	return &Session{
		local:    local,
		password: password,
		incoming: make(chan any, 32),
		pending:  make(map[string]chan iqReply),
	}
}

// SetPassword updates the credential used on the next Connect call.
func (s *Session) SetPassword(password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.password = password
}

// Incoming returns the channel every decoded stanza and Disconnected value
// is pushed to. The core drains it with a bubbletea command so delivery
// still lands on the single-threaded Update loop.
func (s *Session) Incoming() <-chan any {
	return s.incoming
}

// Connected reports whether the stream is currently up.
func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// LocalAddr returns the bound resource jid, valid once Connect succeeds.
func (s *Session) LocalAddr() jid.JID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.local
}

// Connect dials the account's domain, negotiates StartTLS, SASL and
// resource binding, and starts the background read loop. It is a no-op if
// already connected.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.connected {
		s.mu.Unlock()
		return nil
	}
	local, password := s.local, s.password
	s.mu.Unlock()

	domain := local.Domain()
	addr := net.JoinHostPort(domain.String(), strconv.Itoa(5222))

	dialCtx, dialCancel := context.WithTimeout(ctx, 30*time.Second)
	defer dialCancel()
	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return apterr.TransportErr(fmt.Errorf("dial %s: %w", addr, err))
	}

	tlsConfig := &tls.Config{
		ServerName: domain.String(),
		MinVersion: tls.VersionTLS12,
	}

	negotiator := xmpp.NewNegotiator(func(_ *xmpp.Session, _ *xmpp.StreamConfig) xmpp.StreamConfig {
		return xmpp.StreamConfig{
			Features: []xmpp.StreamFeature{
				xmpp.StartTLS(tlsConfig),
				xmpp.SASL("", password,
					sasl.ScramSha256Plus, sasl.ScramSha256,
					sasl.ScramSha1Plus, sasl.ScramSha1,
					sasl.Plain),
				xmpp.BindResource(),
			},
		}
	})

	runCtx, cancel := context.WithCancel(context.Background())
	sess, err := xmpp.NewSession(ctx, domain, local, conn, 0, negotiator)
	if err != nil {
		conn.Close()
		cancel()
		return apterr.TransportErr(fmt.Errorf("negotiate session: %w", err))
	}

	s.mu.Lock()
	s.sess = sess
	s.local = sess.LocalAddr()
	s.connected = true
	s.cancel = cancel
	s.mu.Unlock()

	go s.readLoop(runCtx)

	return nil
}

// Close tears down the connection. Safe to call when not connected.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil
	}
	s.connected = false
	if s.cancel != nil {
		s.cancel()
	}
	return s.sess.Close()
}

// SendMessage encodes and writes a chat or groupchat message.
func (s *Session) SendMessage(ctx context.Context, m model.XmppMessage) error {
	s.mu.RLock()
	sess, connected := s.sess, s.connected
	s.mu.RUnlock()
	if !connected {
		return apterr.TransportErr(errors.New("not connected"))
	}

	typ := stanza.ChatMessage
	if m.Kind == model.KindGroupchat {
		typ = stanza.GroupChatMessage
	}

	payload := struct {
		stanza.Message
		Body struct {
			XMLName xml.Name `xml:"body"`
			Text    string   `xml:",chardata"`
		}
	}{
		Message: stanza.Message{ID: m.ID, To: m.To, Type: typ},
	}
	payload.Body.Text = m.Body

	if err := sess.Encode(ctx, payload); err != nil {
		return apterr.TransportErr(err)
	}
	return nil
}

// SendPresence writes a directed or broadcast presence stanza.
func (s *Session) SendPresence(ctx context.Context, p stanza.Presence) error {
	s.mu.RLock()
	sess, connected := s.sess, s.connected
	s.mu.RUnlock()
	if !connected {
		return apterr.TransportErr(errors.New("not connected"))
	}
	if err := sess.Encode(ctx, p); err != nil {
		return apterr.TransportErr(err)
	}
	return nil
}

// SendPresencePayload writes a presence stanza wrapping an extension
// payload, the shape a MUC join/leave needs to carry its
// http://jabber.org/protocol/muc <x/> child.
func (s *Session) SendPresencePayload(ctx context.Context, p stanza.Presence, payload xml.TokenReader) error {
	s.mu.RLock()
	sess, connected := s.sess, s.connected
	s.mu.RUnlock()
	if !connected {
		return apterr.TransportErr(errors.New("not connected"))
	}

	w := sess.TokenWriter()
	defer w.Flush()
	attrs := []xml.Attr{{Name: xml.Name{Local: "to"}, Value: p.To.String()}}
	if p.ID != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "id"}, Value: p.ID})
	}
	if p.Type != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "type"}, Value: string(p.Type)})
	}
	if err := w.EncodeToken(xml.StartElement{Name: xml.Name{Local: "presence"}, Attr: attrs}); err != nil {
		return apterr.TransportErr(err)
	}
	if _, err := xmlstream.Copy(w, payload); err != nil {
		return apterr.TransportErr(err)
	}
	if err := w.EncodeToken(xml.EndElement{Name: xml.Name{Local: "presence"}}); err != nil {
		return apterr.TransportErr(err)
	}
	return nil
}

// SendIQResult encodes a result or error IQ in reply to an inbound request,
// without waiting for any further response. id and To must be copied from
// the inbound IncomingIQ by the caller.
func (s *Session) SendIQResult(ctx context.Context, iq stanza.IQ, payload xml.TokenReader) error {
	s.mu.RLock()
	sess, connected := s.sess, s.connected
	s.mu.RUnlock()
	if !connected {
		return apterr.TransportErr(errors.New("not connected"))
	}

	w := sess.TokenWriter()
	defer w.Flush()
	if err := w.Encode(iqStart(iq)); err != nil {
		return apterr.TransportErr(err)
	}
	if _, err := xmlstream.Copy(w, payload); err != nil {
		return apterr.TransportErr(err)
	}
	if err := w.EncodeToken(xml.EndElement{Name: xml.Name{Local: "iq"}}); err != nil {
		return apterr.TransportErr(err)
	}
	return nil
}

func iqStart(iq stanza.IQ) xml.StartElement {
	attrs := []xml.Attr{
		{Name: xml.Name{Local: "id"}, Value: iq.ID},
		{Name: xml.Name{Local: "type"}, Value: string(iq.Type)},
	}
	if !iq.To.Equal(jid.JID{}) {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "to"}, Value: iq.To.String()})
	}
	return xml.StartElement{Name: xml.Name{Local: "iq"}, Attr: attrs}
}

// SendIQ sends a get/set IQ with payload and blocks (bounded by IQTimeout)
// for the matching response, correlated by id against readLoop rather than
// mellium.im/xmpp/muc.SetConfigIQ's SendIQElement (see IQTimeout).
func (s *Session) SendIQ(ctx context.Context, iq stanza.IQ, payload xml.TokenReader) (xmlstream.TokenReadCloser, error) {
	reply, err := s.roundTrip(ctx, iq, payload)
	if err != nil {
		return nil, err
	}
	return tokenReadCloser{xml.NewDecoder(bytes.NewReader(reply.payload))}, nil
}

// UnmarshalIQ sends a get/set IQ and unmarshals the response payload into v,
// the request/reply shape bookmarks retrieval uses against a PEP node.
func (s *Session) UnmarshalIQ(ctx context.Context, iq stanza.IQ, payload xml.TokenReader, v any) error {
	reply, err := s.roundTrip(ctx, iq, payload)
	if err != nil {
		return err
	}
	if len(reply.payload) == 0 {
		return nil
	}
	if err := xml.Unmarshal(reply.payload, v); err != nil {
		return apterr.ProtocolErr(fmt.Errorf("unmarshal iq response: %w", err))
	}
	return nil
}

// tokenReadCloser adds the no-op Close xmlstream.TokenReadCloser requires
// on top of an *xml.Decoder reading a captured response's bytes.
type tokenReadCloser struct{ *xml.Decoder }

func (tokenReadCloser) Close() error { return nil }

// roundTrip writes a get/set IQ (stamping an id via uuid if the caller left
// one unset), registers a pending channel for that id, and waits for
// readLoop to deliver the matching result/error response or for IQTimeout
// to elapse.
func (s *Session) roundTrip(ctx context.Context, iq stanza.IQ, payload xml.TokenReader) (iqReply, error) {
	s.mu.Lock()
	sess, connected := s.sess, s.connected
	if !connected {
		s.mu.Unlock()
		return iqReply{}, apterr.TransportErr(errors.New("not connected"))
	}
	if iq.ID == "" {
		iq.ID = uuid.NewString()
	}
	ch := make(chan iqReply, 1)
	s.pending[iq.ID] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, iq.ID)
		s.mu.Unlock()
	}()

	w := sess.TokenWriter()
	if err := w.Encode(iqStart(iq)); err != nil {
		return iqReply{}, apterr.TransportErr(err)
	}
	if _, err := xmlstream.Copy(w, payload); err != nil {
		return iqReply{}, apterr.TransportErr(err)
	}
	if err := w.EncodeToken(xml.EndElement{Name: xml.Name{Local: "iq"}}); err != nil {
		return iqReply{}, apterr.TransportErr(err)
	}
	if err := w.Flush(); err != nil {
		return iqReply{}, apterr.TransportErr(err)
	}

	iqCtx, cancel := context.WithTimeout(ctx, IQTimeout)
	defer cancel()

	select {
	case reply := <-ch:
		if reply.err != nil {
			return iqReply{}, apterr.ProtocolErr(reply.err)
		}
		return reply, nil
	case <-iqCtx.Done():
		return iqReply{}, apterr.TransportErr(fmt.Errorf("iq %s: %w", iq.ID, iqCtx.Err()))
	}
}

func (s *Session) readLoop(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.connected = false
		sess := s.sess
		s.mu.Unlock()
		_ = sess
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.mu.RLock()
		sess := s.sess
		s.mu.RUnlock()
		if sess == nil {
			return
		}

		tok, err := sess.TokenReader().Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.push(Disconnected{})
			} else {
				s.push(Disconnected{Err: apterr.TransportErr(err)})
			}
			return
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "message":
			s.handleMessage(sess, start)
		case "presence":
			s.handlePresence(sess, start)
		case "iq":
			s.handleIQ(sess, start)
		}
	}
}

// carbonsNS is the XEP-0280 namespace wrapping a <sent/>/<received/> forward
// of a message sent or received on another of the account's resources.
const carbonsNS = "urn:xmpp:carbons:2"

func (s *Session) handleMessage(sess *xmpp.Session, start xml.StartElement) {
	var from, to jid.JID
	var id string
	typ := stanza.ChatMessage
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "from":
			from, _ = jid.Parse(a.Value)
		case "to":
			to, _ = jid.Parse(a.Value)
		case "id":
			id = a.Value
		case "type":
			typ = stanza.MessageType(a.Value)
		}
	}

	tr := sess.TokenReader()
	var body string
	hasBody := false
	var carbonSent bool
	var carbonSeen bool
	for {
		tok, err := tr.Token()
		if err != nil {
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "body" && !carbonSeen:
				if bt, err := tr.Token(); err == nil {
					if cd, ok := bt.(xml.CharData); ok {
						body = string(cd)
						hasBody = true
					}
				}
			case t.Name.Space == carbonsNS && (t.Name.Local == "sent" || t.Name.Local == "received"):
				carbonSeen = true
				carbonSent = t.Name.Local == "sent"
				if inner, ok := s.readForwardedMessage(tr); ok {
					from, to, id, typ, body = inner.from, inner.to, inner.id, inner.typ, inner.body
					hasBody = true
				}
			}
		case xml.EndElement:
			if t.Name.Local == "message" {
				if hasBody {
					kind := model.KindChat
					if typ == stanza.GroupChatMessage {
						kind = model.KindGroupchat
					}
					s.push(IncomingMessage{
						Sent: carbonSent,
						Msg: model.XmppMessage{
							Kind:      kind,
							ID:        id,
							Timestamp: time.Now(),
							From:      from,
							To:        to,
							Body:      body,
						},
					})
				}
				return
			}
		}
	}
}

type forwardedFields struct {
	from, to jid.JID
	id       string
	typ      stanza.MessageType
	body     string
}

// readForwardedMessage drains tokens up through </sent> or </received>,
// pulling the from/to/id/type/body of the single <forwarded><message>
// XEP-0297 wraps inside a carbon copy.
func (s *Session) readForwardedMessage(tr xml.TokenReader) (forwardedFields, bool) {
	var f forwardedFields
	found := false
	depth := 0
	for {
		tok, err := tr.Token()
		if err != nil {
			return f, found
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "message" {
				found = true
				for _, a := range t.Attr {
					switch a.Name.Local {
					case "from":
						f.from, _ = jid.Parse(a.Value)
					case "to":
						f.to, _ = jid.Parse(a.Value)
					case "id":
						f.id = a.Value
					case "type":
						f.typ = stanza.MessageType(a.Value)
					}
				}
			} else if t.Name.Local == "body" {
				if bt, err := tr.Token(); err == nil {
					if cd, ok := bt.(xml.CharData); ok {
						f.body = string(cd)
					}
				}
			}
		case xml.EndElement:
			depth--
			if t.Name.Local == "sent" || t.Name.Local == "received" {
				return f, found
			}
			if depth < 0 {
				return f, found
			}
		}
	}
}

// mucUserNS is the XEP-0045 namespace of a MUC occupant presence's <x/>
// child carrying the occupant's role/affiliation/real jid.
const mucUserNS = "http://jabber.org/protocol/muc#user"

func (s *Session) handlePresence(sess *xmpp.Session, start xml.StartElement) {
	var from jid.JID
	typ := stanza.AvailablePresence
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "from":
			from, _ = jid.Parse(a.Value)
		case "type":
			typ = stanza.PresenceType(a.Value)
		}
	}

	tr := sess.TokenReader()
	var show string
	var mucItem *MucItem
	var statusCodes []int
	for {
		tok, err := tr.Token()
		if err != nil {
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "show":
				if st, err := tr.Token(); err == nil {
					if cd, ok := st.(xml.CharData); ok {
						show = string(cd)
					}
				}
			case t.Name.Space == mucUserNS && t.Name.Local == "x":
				mucItem, statusCodes = s.readMucUser(tr)
			}
		case xml.EndElement:
			if t.Name.Local == "presence" {
				s.push(IncomingPresence{
					From:        from,
					Type:        typ,
					Show:        show,
					MucItem:     mucItem,
					StatusCodes: statusCodes,
				})
				return
			}
		}
	}
}

// readMucUser drains tokens up through </x>, pulling the single <item/>'s
// attributes and every <status code=.../> sibling.
func (s *Session) readMucUser(tr xml.TokenReader) (*MucItem, []int) {
	var item *MucItem
	var codes []int
	depth := 0
	for {
		tok, err := tr.Token()
		if err != nil {
			return item, codes
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "item":
				it := &MucItem{}
				for _, a := range t.Attr {
					switch a.Name.Local {
					case "affiliation":
						it.Affiliation = a.Value
					case "role":
						it.Role = a.Value
					case "jid":
						it.JID, _ = jid.Parse(a.Value)
					}
				}
				item = it
			case "status":
				for _, a := range t.Attr {
					if a.Name.Local == "code" {
						if n, err := strconv.Atoi(a.Value); err == nil {
							codes = append(codes, n)
						}
					}
				}
			}
		case xml.EndElement:
			depth--
			if t.Name.Local == "x" && depth <= 0 {
				return item, codes
			}
		}
	}
}

func (s *Session) handleIQ(sess *xmpp.Session, start xml.StartElement) {
	var from jid.JID
	var id string
	typ := stanza.GetIQ
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "from":
			from, _ = jid.Parse(a.Value)
		case "id":
			id = a.Value
		case "type":
			typ = stanza.IQType(a.Value)
		}
	}

	tr := sess.TokenReader()

	if typ == stanza.ResultIQ || typ == stanza.ErrorIQ {
		s.mu.RLock()
		ch, waiting := s.pending[id]
		s.mu.RUnlock()
		if waiting {
			payload, err := captureIQPayload(tr)
			if err == nil && typ == stanza.ErrorIQ {
				err = decodeIQError(payload)
			}
			ch <- iqReply{typ: typ, payload: payload, err: err}
			return
		}
	}

	for {
		tok, err := tr.Token()
		if err != nil {
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			s.push(IncomingIQ{ID: id, Type: typ, From: from, Name: t.Name})
		case xml.EndElement:
			if t.Name.Local == "iq" {
				return
			}
		}
	}
}

// captureIQPayload drains tokens up through </iq>, re-encoding everything it
// reads so the bytes can be handed back through SendIQ/UnmarshalIQ exactly
// as mellium's own UnmarshalIQElement would have delivered them.
func captureIQPayload(tr xml.TokenReader) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	depth := 0
	for {
		tok, err := tr.Token()
		if err != nil {
			return nil, err
		}
		if end, ok := tok.(xml.EndElement); ok && end.Name.Local == "iq" && depth == 0 {
			if err := enc.Flush(); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if err := enc.EncodeToken(t); err != nil {
				return nil, err
			}
		case xml.EndElement:
			depth--
			if err := enc.EncodeToken(t); err != nil {
				return nil, err
			}
		default:
			if err := enc.EncodeToken(tok); err != nil {
				return nil, err
			}
		}
	}
}

// decodeIQError walks a captured error-IQ payload for its RFC 6120 §8.3.3
// condition element and optional <text/>, ignoring whatever request-echo
// element (e.g. <query/>) the server may have included alongside <error/>.
func decodeIQError(payload []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(payload))
	var condition, text string
	inError := false
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "error":
				inError = true
			case inError && t.Name.Local == "text":
				dec.DecodeElement(&text, &t)
			case inError && condition == "":
				condition = t.Name.Local
			}
		case xml.EndElement:
			if t.Name.Local == "error" {
				inError = false
			}
		}
	}
	if condition == "" {
		return errors.New("iq error response")
	}
	if text != "" {
		return fmt.Errorf("iq error: %s (%s)", condition, text)
	}
	return fmt.Errorf("iq error: %s", condition)
}

func (s *Session) push(v any) {
	select {
	case s.incoming <- v:
	default:
		// Backlog full: drop rather than block the read loop indefinitely.
		// A dropped Disconnected would strand the core waiting for one that
		// never arrives, so Disconnected always gets a second, blocking try.
		if _, ok := v.(Disconnected); ok {
			s.incoming <- v
		}
	}
}
