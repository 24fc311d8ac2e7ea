//go:build linux || darwin

package reactor

import (
	"fmt"
	"net"
	"strconv"

	"golang.org/x/sys/unix"
)

func closeFd(fd int) error {
	return unix.Close(fd)
}

func setNonBlock(fd int, value bool) error {
	return unix.SetNonblock(fd, value)
}

func setCloexec(fd int, value bool) error {
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	if err != nil {
		return err
	}
	if value {
		flags |= unix.FD_CLOEXEC
	} else {
		flags &^= unix.FD_CLOEXEC
	}
	_, err = unix.FcntlInt(uintptr(fd), unix.F_SETFD, flags)
	return err
}

func setReuseAddr(fd int, value bool) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, boolToInt(value))
}

func setReusePort(fd int, value bool) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, boolToInt(value))
}

func setNoDelay(fd int, value bool) error {
	return unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, boolToInt(value))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// resolveTCPAddr resolves host:port (host may be empty for INADDR_ANY)
// into a 4-byte IPv4 sockaddr, handy's Ip4Addr resolution contract:
// failure to resolve a non-empty host is reported to the caller rather
// than silently falling back to INADDR_NONE.
func resolveTCPAddr(host string, port int) (unix.SockaddrInet4, error) {
	var sa unix.SockaddrInet4
	sa.Port = port
	if host == "" {
		return sa, nil
	}
	ip, err := net.ResolveIPAddr("ip4", host)
	if err != nil {
		return sa, fmt.Errorf("reactor: cannot resolve %s: %w", host, err)
	}
	ip4 := ip.IP.To4()
	if ip4 == nil {
		return sa, fmt.Errorf("reactor: %s did not resolve to an IPv4 address", host)
	}
	copy(sa.Addr[:], ip4)
	return sa, nil
}

// formatAddr renders an IPv4 sockaddr as host:port.
func formatAddr(sa *unix.SockaddrInet4) string {
	ip := net.IP(sa.Addr[:])
	return net.JoinHostPort(ip.String(), strconv.Itoa(sa.Port))
}

func socketAddr(fd int) string {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return ""
	}
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		return formatAddr(in4)
	}
	return ""
}

func peerAddr(fd int) string {
	sa, err := unix.Getpeername(fd)
	if err != nil {
		return ""
	}
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		return formatAddr(in4)
	}
	return ""
}
