// Package scan parses nmap XML output into host observations.
//
// Two documents are consumed. The host-discovery document (nmap -sn) gives
// reachability, hardware addresses, vendors and hostnames. The port-scan
// document (nmap --top-ports) gives open ports per address and mixes
// <hosthint> pre-scan entries with real <host> results; only the latter are
// read.
//
// Both parsers decode into the nmap.Run model from github.com/Ullaakut/nmap
// and never run nmap themselves.
package scan
