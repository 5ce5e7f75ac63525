//go:build linux

// Package hostshim implements the router's Host seam: real interface
// send/receive over Linux AF_PACKET raw sockets, plus interface
// discovery from the kernel (routes are not discovered). Everything
// the core datapath (internal/router) needs from the outside world
// funnels through this package, so the
// datapath itself never touches a socket.
package hostshim

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/athena-router/athena-router/internal/topo"
)

func htons(v uint16) uint16 {
	return (v<<8)&0xff00 | (v>>8)&0x00ff
}

// socketIface is one bound-and-raw-socketed NIC.
type socketIface struct {
	name  string
	fd    int
	index int
	mac   [6]byte
}

// Host owns one raw socket per configured interface and fans incoming
// frames into a single channel, so the caller can run the router's
// Dispatch from a single goroutine — the caches are never safe for
// concurrent use.
type Host struct {
	mu     sync.Mutex
	ifaces map[string]*socketIface
}

// Frame is one received Ethernet frame plus the interface it arrived on.
type Frame struct {
	Data      []byte
	Interface string
	At        time.Time
}

// Open binds a raw AF_PACKET socket to each named interface.
func Open(ifaceNames []string) (*Host, error) {
	h := &Host{ifaces: make(map[string]*socketIface, len(ifaceNames))}
	for _, name := range ifaceNames {
		si, err := openSocketIface(name)
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("hostshim: open %s: %w", name, err)
		}
		h.ifaces[name] = si
	}
	return h, nil
}

func openSocketIface(name string) (*socketIface, error) {
	nif, err := net.InterfaceByName(name)
	if err != nil {
		return nil, err
	}
	if len(nif.HardwareAddr) != 6 {
		return nil, fmt.Errorf("interface %s has no 6-byte hardware address", name)
	}

	fd, err := syscall.Socket(syscall.AF_PACKET, syscall.SOCK_RAW, int(htons(syscall.ETH_P_ALL)))
	if err != nil {
		return nil, fmt.Errorf("socket: %w (raw sockets need CAP_NET_RAW)", err)
	}

	addr := syscall.SockaddrLinklayer{
		Protocol: htons(syscall.ETH_P_ALL),
		Ifindex:  nif.Index,
	}
	if err := syscall.Bind(fd, &addr); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("bind: %w", err)
	}

	si := &socketIface{name: name, fd: fd, index: nif.Index}
	copy(si.mac[:], nif.HardwareAddr)
	return si, nil
}

// Send implements router.Sender: it transmits frame out the named
// interface's raw socket.
func (h *Host) Send(frame []byte, ifaceName string) error {
	h.mu.Lock()
	si, ok := h.ifaces[ifaceName]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("hostshim: unknown interface %q", ifaceName)
	}

	addr := syscall.SockaddrLinklayer{
		Protocol: htons(syscall.ETH_P_ALL),
		Ifindex:  si.index,
		Halen:    6,
	}
	copy(addr.Addr[:], frame[0:6])
	return syscall.Sendto(si.fd, frame, 0, &addr)
}

// Serve reads frames from every bound interface and delivers them to
// recv, sequentially, until ctx is cancelled. recv is the only place
// frames leave this package, keeping every call into the router's
// caches on one goroutine.
func (h *Host) Serve(ctx context.Context, recv func(Frame)) error {
	out := make(chan Frame, 64)
	var wg sync.WaitGroup

	h.mu.Lock()
	ifaces := make([]*socketIface, 0, len(h.ifaces))
	for _, si := range h.ifaces {
		ifaces = append(ifaces, si)
	}
	h.mu.Unlock()

	for _, si := range ifaces {
		wg.Add(1)
		go func(si *socketIface) {
			defer wg.Done()
			readLoop(ctx, si, out)
		}(si)
	}
	go func() {
		wg.Wait()
		close(out)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-out:
			if !ok {
				return nil
			}
			recv(f)
		}
	}
}

func readLoop(ctx context.Context, si *socketIface, out chan<- Frame) {
	buf := make([]byte, 65536)
	for {
		if ctx.Err() != nil {
			return
		}
		n, _, err := syscall.Recvfrom(si.fd, buf, 0)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		frame := make([]byte, n)
		copy(frame, buf[:n])
		select {
		case out <- Frame{Data: frame, Interface: si.name, At: time.Now()}:
		case <-ctx.Done():
			return
		}
	}
}

// Close releases every bound socket. Idempotent.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	var firstErr error
	for name, si := range h.ifaces {
		if err := syscall.Close(si.fd); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(h.ifaces, name)
	}
	return firstErr
}

// Discover queries the kernel for the named interfaces' MAC and IPv4
// address, building the topo.Interfaces set the router is configured
// with. It does not consult h's sockets; it's meant to be called before
// Open, from the addresses already present in the OS's configuration.
func Discover(ifaceNames []string) (*topo.Interfaces, error) {
	out := make([]topo.Interface, 0, len(ifaceNames))
	for _, name := range ifaceNames {
		nif, err := net.InterfaceByName(name)
		if err != nil {
			return nil, fmt.Errorf("hostshim: discover %s: %w", name, err)
		}
		addrs, err := nif.Addrs()
		if err != nil {
			return nil, fmt.Errorf("hostshim: addrs for %s: %w", name, err)
		}
		var ip uint32
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			v4 := ipNet.IP.To4()
			if v4 == nil {
				continue
			}
			ip = binary.BigEndian.Uint32(v4)
			break
		}
		if ip == 0 {
			return nil, fmt.Errorf("hostshim: interface %s has no IPv4 address", name)
		}
		var mac [6]byte
		copy(mac[:], nif.HardwareAddr)
		out = append(out, topo.Interface{Name: name, MAC: mac, IP: ip})
	}
	return topo.NewInterfaces(out), nil
}
