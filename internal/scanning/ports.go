package scanning

import (
	"sort"
	"strconv"
	"strings"
)

// ServiceCategory groups discovered services for segment reporting.
type ServiceCategory string

const (
	CategoryMailFTP         ServiceCategory = "MAIL_FTP"
	CategoryAdministration  ServiceCategory = "ADMINISTRATION"
	CategoryDNS             ServiceCategory = "DNS"
	CategoryWebServices     ServiceCategory = "WEB_SERVICES"
	CategoryWindowsServices ServiceCategory = "WINDOWS_SERVICES"
	CategoryDatabase        ServiceCategory = "DATABASE"
	CategoryOther           ServiceCategory = "OTHER"
)

// PortInfo names a well-known port and assigns its reporting category.
type PortInfo struct {
	Service  string
	Category ServiceCategory
}

// portTable is the fixed audit surface: the ports every scan targets and
// how their services are labeled in reports.
var portTable = map[int]PortInfo{
	21:   {"FTP", CategoryMailFTP},
	22:   {"SSH", CategoryAdministration},
	23:   {"Telnet", CategoryAdministration},
	25:   {"SMTP", CategoryMailFTP},
	53:   {"DNS", CategoryDNS},
	80:   {"HTTP", CategoryWebServices},
	110:  {"POP3", CategoryMailFTP},
	135:  {"RPC", CategoryWindowsServices},
	139:  {"NetBIOS", CategoryWindowsServices},
	143:  {"IMAP", CategoryMailFTP},
	443:  {"HTTPS", CategoryWebServices},
	993:  {"IMAPS", CategoryMailFTP},
	995:  {"POP3S", CategoryMailFTP},
	1433: {"MSSQL", CategoryDatabase},
	1521: {"Oracle", CategoryDatabase},
	3306: {"MySQL", CategoryDatabase},
	3389: {"RDP", CategoryAdministration},
	5432: {"PostgreSQL", CategoryDatabase},
	5900: {"VNC", CategoryAdministration},
	8080: {"HTTP-Alt", CategoryWebServices},
	8443: {"HTTPS-Alt", CategoryWebServices},
}

// LookupPort resolves a port number to its service name and category.
// Unknown ports report as "Unknown" in the OTHER category.
func LookupPort(port int) PortInfo {
	if info, ok := portTable[port]; ok {
		return info
	}
	return PortInfo{Service: "Unknown", Category: CategoryOther}
}

// TargetPorts returns the audited port numbers in ascending order.
func TargetPorts() []int {
	ports := make([]int, 0, len(portTable))
	for p := range portTable {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	return ports
}

// PortSpec renders the audited ports as an nmap -p argument.
func PortSpec() string {
	ports := TargetPorts()
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}
