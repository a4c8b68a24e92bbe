// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package quicclient is the client connection state machine: the public
// entry point that owns cipher installation, phase progression,
// transport-parameter negotiation, and the dual-stack dial. It drives the
// internal/handshake adapter and internal/happyeyeballs racer directly,
// implementing the QUIC client transport itself rather than delegating it
// to an imported library.
package quicclient

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dtn7/goquic/congestion"
	"github.com/dtn7/goquic/internal/handshake"
	"github.com/dtn7/goquic/internal/happyeyeballs"
	"github.com/dtn7/goquic/internal/protocol"
	"github.com/dtn7/goquic/internal/wire"
	"github.com/dtn7/goquic/psk"
	"github.com/dtn7/goquic/qlog"
)

// pendingDatagramCap is the bounded ring of datagrams buffered per
// encryption level while its read cipher is not yet installed (Open
// Question #2's resolution: drop the oldest silently past this cap).
const pendingDatagramCap = 16

// inboundDatagram is one UDP datagram handed from a reader goroutine to
// the connection's event loop.
type inboundDatagram struct {
	fromSecondary bool
	addr          net.Addr
	data          []byte
	receiveTime   time.Time
}

// Connection is a client-side QUIC connection. All fields below the
// concurrency-relevant line are only ever touched by the single event
// loop goroutine started in start(), keeping this type lock-free;
// everything else reaches them through apiCalls or inbound.
type Connection struct {
	localConnID protocol.ConnectionID
	peerConnID  protocol.ConnectionID
	serverName  string

	config Config

	racer          *happyeyeballs.Racer
	primaryConn    *net.UDPConn
	secondaryConn  *net.UDPConn

	cipherSet *handshake.CipherSet
	adapter   *handshake.Adapter
	phase     protocol.Phase

	cryptoRecv [4]*cryptoBuffer
	pending    [4][]inboundDatagram

	nextPacketNumber [4]protocol.PacketNumber
	largestAckedRecv [4]protocol.PacketNumber
	peerLargestAcked [4]protocol.PacketNumber
	sawServerInitial bool

	cryptoSendOffset  [4]uint64
	cryptoSendPending [4][]byte
	ackPending        [4]ackTracker

	sentPackets [4]map[protocol.PacketNumber]sentPacketInfo

	pathResponsePending [][8]byte

	retryToken         []byte
	initialClientHello []byte

	state                    connState
	handshakeKeyDiscardTimer *time.Timer

	serverParamsReceived bool
	peerMaxData          uint64
	peerMaxStreamData    [3]uint64
	peerMaxStreamsBidi   uint64
	peerMaxStreamsUni    uint64

	streams map[protocol.StreamID]*protocol.StreamFlowState

	controller  congestion.Controller
	pskCache    psk.Cache
	qlogEmitter qlog.Emitter

	peerAddress         net.Addr
	originalPeerAddress net.Addr

	inbound  chan inboundDatagram
	apiCalls chan func()
	done     chan struct{}
	doneOnce sync.Once

	connectCallback func(error)
	connectOnce     sync.Once

	onConnectionEnd func(error)
	terminalOnce    sync.Once
	closeErr        error

	selfRefMu sync.Mutex
	selfRef   *Connection

	handshakeTimer *time.Timer
	idleTimer      *time.Timer
}

// sentPacketInfo is the minimal per-packet bookkeeping kept so an AckFrame
// can be turned into congestion.Controller feedback.
type sentPacketInfo struct {
	size   uint64
	sentAt time.Time
}

// connState is the coarse lifecycle a connection moves through: active, then
// closing (a CONNECTION_CLOSE has gone out or is going out), then terminal
// once teardown has released the connection's resources.
type connState int

const (
	connStateActive connState = iota
	connStateClosing
	connStateTerminal
)

// NewConnection constructs a Connection ready for start, validating
// configuration synchronously: custom transport parameters must be
// validated before start returns, not discovered mid-handshake.
func NewConnection(serverName string, cfg Config) (*Connection, error) {
	if err := validateCustomTransportParameters(cfg.CustomTransportParameters); err != nil {
		return nil, err
	}
	if cfg.TLSConfig == nil {
		return nil, fmt.Errorf("quicclient: TLSConfig is required")
	}

	localConnID, err := protocol.GenerateConnectionID(8)
	if err != nil {
		return nil, fmt.Errorf("quicclient: generating local connection id: %w", err)
	}
	peerConnID, err := protocol.GenerateConnectionID(8)
	if err != nil {
		return nil, fmt.Errorf("quicclient: generating initial destination connection id: %w", err)
	}

	qlogEmitter := cfg.QLogEmitter
	if qlogEmitter == nil {
		qlogEmitter = qlog.NopEmitter{}
	}

	var controller congestion.Controller
	if cfg.NewController != nil {
		controller = cfg.NewController()
	}

	c := &Connection{
		localConnID: localConnID,
		peerConnID:  peerConnID,
		serverName:  serverName,
		config:      cfg,
		racer:       happyeyeballs.NewRacer(),
		cipherSet:   handshake.NewCipherSet(),
		phase:       protocol.PhaseInitial,
		streams:     make(map[protocol.StreamID]*protocol.StreamFlowState),
		controller:  controller,
		pskCache:    cfg.PSKCache,
		qlogEmitter:     qlogEmitter,
		onConnectionEnd: cfg.OnConnectionEnd,
		inbound:         make(chan inboundDatagram, 64),
		apiCalls:        make(chan func()),
		done:            make(chan struct{}),
	}
	for i := range c.largestAckedRecv {
		c.largestAckedRecv[i] = protocol.InvalidPacketNumber
		c.peerLargestAcked[i] = protocol.InvalidPacketNumber
		c.cryptoRecv[i] = newCryptoBuffer()
	}

	c.adapter = handshake.NewAdapter(handshake.Config{
		TLSConfig:            cfg.TLSConfig,
		LocalTransportParams: c.encodeLocalTransportParameters(),
		PSKCache:             cfg.PSKCache,
		ServerName:           serverName,
		OnNewCachedPsk:       c.onNewCachedPsk,
	})

	return c, nil
}

// Dial performs a full connect: constructs the Connection, races addrs
// (one or two, one per address family) via the happy-eyeballs racer,
// drives the handshake, and returns once the connection is usable or an
// error occurs.
func Dial(ctx context.Context, serverName string, addrs []*net.UDPAddr, cfg Config) (*Connection, error) {
	merged := defaultConfig()
	if cfg.TLSConfig != nil {
		merged.TLSConfig = cfg.TLSConfig
	}
	if cfg.IdleTimeout != 0 {
		merged.IdleTimeout = cfg.IdleTimeout
	}
	if cfg.HandshakeTimeout != 0 {
		merged.HandshakeTimeout = cfg.HandshakeTimeout
	}
	if cfg.HappyEyeballsDelay != 0 {
		merged.HappyEyeballsDelay = cfg.HappyEyeballsDelay
	}
	if cfg.InitialMaxData != 0 {
		merged.InitialMaxData = cfg.InitialMaxData
	}
	if cfg.InitialMaxStreamData != ([3]uint64{}) {
		merged.InitialMaxStreamData = cfg.InitialMaxStreamData
	}
	if cfg.InitialMaxStreamsBidi != 0 {
		merged.InitialMaxStreamsBidi = cfg.InitialMaxStreamsBidi
	}
	if cfg.InitialMaxStreamsUni != 0 {
		merged.InitialMaxStreamsUni = cfg.InitialMaxStreamsUni
	}
	merged.CustomTransportParameters = cfg.CustomTransportParameters
	merged.NewController = cfg.NewController
	merged.PSKCache = cfg.PSKCache
	merged.QLogEmitter = cfg.QLogEmitter
	merged.OnConnectionEnd = cfg.OnConnectionEnd

	c, err := NewConnection(serverName, merged)
	if err != nil {
		return nil, err
	}

	for _, addr := range addrs {
		family := happyeyeballs.FamilyIPv6
		if addr.IP.To4() != nil {
			family = happyeyeballs.FamilyIPv4
		}
		if err := c.racer.AddPeerAddress(family, addr); err != nil {
			return nil, err
		}
	}

	result := make(chan error, 1)
	if err := c.start(func(err error) {
		select {
		case result <- err:
		default:
		}
	}); err != nil {
		return nil, err
	}

	select {
	case err := <-result:
		if err != nil {
			return nil, err
		}
		return c, nil
	case <-ctx.Done():
		c.CloseNow()
		return nil, ctx.Err()
	}
}

// start begins the connection: binds sockets, kicks off happy-eyeballs
// (if two addresses are configured), installs the Initial cipher derived
// from the destination connection id, and starts the handshake adapter.
// callback is invoked exactly once, with nil on success or the fatal
// error on failure - the Dial contract's terminal callback.
func (c *Connection) start(callback func(error)) error {
	c.connectCallback = callback

	primaryConn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return fmt.Errorf("quicclient: binding primary socket: %w", err)
	}
	c.primaryConn = primaryConn
	if err := c.racer.AddSocket(happyeyeballs.NewUDPSocket(primaryConn)); err != nil {
		return err
	}

	c.retainSelf()

	setup := func(family happyeyeballs.Family, peerAddr net.Addr) (happyeyeballs.Socket, error) {
		network := "udp4"
		if family == happyeyeballs.FamilyIPv6 {
			network = "udp6"
		}
		conn, err := net.ListenUDP(network, nil)
		if err != nil {
			return nil, err
		}
		c.secondaryConn = conn
		go c.readLoop(conn, true)
		return happyeyeballs.NewUDPSocket(conn), nil
	}

	var hint *happyeyeballs.Family
	if err := c.racer.Start(hint, happyeyeballs.WallClockScheduler{Delay: c.config.HappyEyeballsDelay}, 0, setup); err != nil {
		c.releaseSelf()
		return err
	}
	c.peerAddress = c.racer.PeerAddress()
	c.originalPeerAddress = c.racer.OriginalPeerAddress()

	initialSecretClient, initialSecretServer := handshake.InitialSecrets(c.peerConnID)
	if err := c.cipherSet.Install(protocol.EncryptionInitial, protocol.DirectionWrite, handshake.DeriveLevelSecret(initialSecretClient)); err != nil {
		c.releaseSelf()
		return err
	}
	if err := c.cipherSet.Install(protocol.EncryptionInitial, protocol.DirectionRead, handshake.DeriveLevelSecret(initialSecretServer)); err != nil {
		c.releaseSelf()
		return err
	}

	go c.readLoop(primaryConn, false)

	c.handshakeTimer = time.AfterFunc(c.config.HandshakeTimeout, func() {
		c.runOnLoop(func() { c.fail(NewTransportError("handshake timed out", ErrInternalError, nil)) })
	})

	go c.eventLoop()

	ctx, cancel := context.WithTimeout(context.Background(), c.config.HandshakeTimeout)
	defer cancel()
	actions, err := c.adapter.Connect(ctx)
	if err != nil {
		c.releaseSelf()
		return err
	}

	done := make(chan struct{})
	c.runOnLoop(func() {
		c.handleHandshakeActions(actions)
		close(done)
	})
	<-done

	return nil
}

// readLoop forwards datagrams from conn to the event loop until conn is
// closed (normal teardown of a happy-eyeballs loser, or connection close).
func (c *Connection) readLoop(conn *net.UDPConn, fromSecondary bool) {
	buf := make([]byte, 65535)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		dgram := inboundDatagram{fromSecondary: fromSecondary, addr: addr, data: data, receiveTime: time.Now()}
		select {
		case c.inbound <- dgram:
		case <-c.done:
			return
		}
	}
}

// eventLoop is the single goroutine owning all connection state: every
// inbound datagram and every API call is serialized through this select
// loop, so no other goroutine ever touches connection state directly.
func (c *Connection) eventLoop() {
	for {
		select {
		case dgram := <-c.inbound:
			c.onDatagram(dgram)
		case fn := <-c.apiCalls:
			fn()
		case <-c.done:
			return
		}
	}
}

// runOnLoop hands fn to the event loop and blocks the caller until the
// loop has taken it; once the connection is done it returns without
// running fn.
func (c *Connection) runOnLoop(fn func()) {
	select {
	case c.apiCalls <- fn:
	case <-c.done:
	}
}

func (c *Connection) retainSelf() {
	c.selfRefMu.Lock()
	defer c.selfRefMu.Unlock()
	c.selfRef = c
}

// releaseSelf drops the connection's self-reference, letting it be
// garbage collected once the application also lets go, released on
// the terminal callback.
func (c *Connection) releaseSelf() {
	c.selfRefMu.Lock()
	defer c.selfRefMu.Unlock()
	c.selfRef = nil
}

func (c *Connection) onNewCachedPsk(material psk.Material) {
	log.WithField("server", c.serverName).Debug("quicclient: cached a new session ticket")
}

// encodeLocalTransportParameters serializes the locally-configured
// transport parameters (the standard flow-control ones plus any
// registered custom ones) into the blob the TLS machine attaches to the
// ClientHello. The wire encoding is a flat sequence of
// (varint id, varint length, value) tuples per QUIC-TRANSPORT §18.1.
func (c *Connection) encodeLocalTransportParameters() []byte {
	var buf []byte
	appendParam := func(id, value uint64) {
		buf, _ = wire.WriteVarInt(buf, id)
		var valBuf []byte
		valBuf, _ = wire.WriteVarInt(valBuf, value)
		buf, _ = wire.WriteVarInt(buf, uint64(len(valBuf)))
		buf = append(buf, valBuf...)
	}
	const (
		paramInitialMaxData            = 0x04
		paramInitialMaxStreamDataBidiLocal  = 0x05
		paramInitialMaxStreamDataBidiRemote = 0x06
		paramInitialMaxStreamDataUni        = 0x07
		paramInitialMaxStreamsBidi          = 0x08
		paramInitialMaxStreamsUni           = 0x09
	)
	appendParam(paramInitialMaxData, c.config.InitialMaxData)
	appendParam(paramInitialMaxStreamDataBidiLocal, c.config.InitialMaxStreamData[0])
	appendParam(paramInitialMaxStreamDataBidiRemote, c.config.InitialMaxStreamData[1])
	appendParam(paramInitialMaxStreamDataUni, c.config.InitialMaxStreamData[2])
	appendParam(paramInitialMaxStreamsBidi, c.config.InitialMaxStreamsBidi)
	appendParam(paramInitialMaxStreamsUni, c.config.InitialMaxStreamsUni)

	for _, p := range c.config.CustomTransportParameters {
		buf, _ = wire.WriteVarInt(buf, p.Identifier)
		buf, _ = wire.WriteVarInt(buf, uint64(len(p.Value)))
		buf = append(buf, p.Value...)
	}
	return buf
}

// Phase reports the connection's current handshake phase.
func (c *Connection) Phase() protocol.Phase {
	var p protocol.Phase
	done := make(chan struct{})
	c.runOnLoop(func() { p = c.phase; close(done) })
	<-done
	return p
}
