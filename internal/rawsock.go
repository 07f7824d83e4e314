//go:build linux && !baremetal

// Package internal holds the platform-specific raw socket attachment cmd/
// rematchd uses to read and write frames on a live interface (spec §6 "an
// external collaborator... owns NIC/DPDK attachment"), adapted from the
// teacher's tap/bridge socket plumbing.
package internal

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

const safamily_hw6 = 1

// Bridge is a raw AF_PACKET socket bound to one interface, receiving and
// transmitting whole Ethernet frames with no kernel TCP/IP processing in
// between — the attach point rematchd's engine.Engine.ProcessFrame reads
// from and writes back to.
type Bridge struct {
	fd    int
	name  string
	index int
}

// NewBridge opens a raw socket for ETH_P_ALL bound to the named interface.
// It does not put the interface into promiscuous mode.
func NewBridge(name string) (*Bridge, error) {
	iface, err := interfaceByName(name)
	if err != nil {
		return nil, err
	}
	proto := htons(syscall.ETH_P_ALL)
	fd, err := syscall.Socket(syscall.AF_PACKET, syscall.SOCK_RAW, int(proto))
	if err != nil {
		return nil, err
	}
	ll := syscall.SockaddrLinklayer{
		Protocol: proto,
		Ifindex:  iface.Index,
	}
	if err := syscall.Bind(fd, &ll); err != nil {
		syscall.Close(fd)
		return nil, err
	}
	return &Bridge{fd: fd, name: iface.Name, index: iface.Index}, nil
}

func (br *Bridge) Write(frame []byte) (int, error) {
	return syscall.Write(br.fd, frame)
}

func (br *Bridge) Read(frame []byte) (int, error) {
	return syscall.Read(br.fd, frame)
}

func (br *Bridge) Close() error {
	return syscall.Close(br.fd)
}

func (br *Bridge) HardwareAddress6() (hw [6]byte, err error) {
	return getSocketHW(br.fd, br.name)
}

func (br *Bridge) MTU() (int, error) {
	return getSocketMTU(br.fd, br.name)
}

func ioctl(fd int, request uintptr, argp unsafe.Pointer) error {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), request, uintptr(argp))
	if errno != 0 {
		return os.NewSyscallError("ioctl", errno)
	}
	return nil
}

func getSocketMTU(sockfd int, ifaceName string) (int, error) {
	ifr := makeifreq(ifaceName)
	err := ioctl(sockfd, syscall.SIOCGIFMTU, ifr.ptr())
	if err != nil {
		return 0, err
	}
	mtu := *(*int32)(unsafe.Pointer(&ifr.Data[0]))
	return int(mtu), nil
}

func getSocketHW(sockfd int, ifaceName string) (hw [6]byte, err error) {
	ifr := makeifreq(ifaceName)
	err = ioctl(sockfd, syscall.SIOCGIFHWADDR, ifr.ptr())
	if err != nil {
		return hw, err
	}
	saFamily := *(*uint16)(unsafe.Pointer(&ifr.Data[0])) // Host order.
	if saFamily != safamily_hw6 {
		return hw, fmt.Errorf("expecting sa_family=1 got %d", saFamily)
	}
	copy(hw[:], ifr.Data[2:]) // first two bytes are sa_family
	return hw, nil
}

func makeifreq(name string) ifreq {
	var ifr ifreq
	copy(ifr.Name[:], name)
	return ifr
}

type ifreq struct {
	Name [syscall.IFNAMSIZ]byte
	Data [64]byte
}

func (ifr *ifreq) ptr() unsafe.Pointer { return unsafe.Pointer(ifr) }

// htons converts a uint16 from host to network byte order.
func htons(i uint16) uint16 { return (i<<8)&0xff00 | i>>8 }
