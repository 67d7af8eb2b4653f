// Package discovery announces and finds formwizard servers over mDNS.
//
// A running formwizard-server registers itself as a "_formwizard._tcp"
// service; `formwizard scan` browses for that service type and lists the
// servers that answer.
//
// # Usage Example
//
//	// Server side
//	ad, err := discovery.Advertise("office", 8080, discovery.TXT{"version": "v1.0.0"})
//	if err != nil {
//	    return err
//	}
//	defer ad.Shutdown()
//
//	// Client side
//	servers, err := discovery.NewScanner().Scan(ctx)
//	for _, s := range servers {
//	    fmt.Println(s.BaseURL())
//	}
//
// # Network Requirements
//
// mDNS uses UDP port 5353 on the local multicast group. Discovery only works
// on the same network segment and may be blocked by firewalls.
package discovery
