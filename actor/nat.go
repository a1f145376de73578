package actor

import "net"

// tcpPort extracts the bound port from a listener's address, or 0 if it
// isn't a *net.TCPAddr.
func tcpPort(addr net.Addr) int {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return 0
	}
	return tcp.Port
}
