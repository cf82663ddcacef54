// Package rtc assembles the WebRTC configuration handed to voice
// clients. The server never terminates media itself; call signaling is
// relayed opaque between channel-mates.
package rtc

import "github.com/pion/webrtc/v4"

const defaultSTUN = "stun:stun.l.google.com:19302"

func Config(stunServers []string) webrtc.Configuration {
	if len(stunServers) == 0 {
		stunServers = []string{defaultSTUN}
	}
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: append([]string(nil), stunServers...)},
		},
	}
}
