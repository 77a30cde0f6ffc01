package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/gorilla/websocket"

	"colony.ai/internal/observerproto"
)

func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/v1/observer", "observer ws url")
		zones    = flag.String("zones", "", "comma-separated zone ids (empty: every visible zone)")
		maxTicks = flag.Int("max_ticks", 0, "exit after this many ticks (0 = until interrupted)")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Error("dial", "url", *url, "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	sub := observerproto.SubscribeMsg{
		Type:            "SUBSCRIBE",
		ProtocolVersion: observerproto.Version,
		Zones:           splitZones(*zones),
	}
	if err := conn.WriteJSON(sub); err != nil {
		logger.Error("send SUBSCRIBE", "err", err)
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.Close()
	}()

	seen := 0
	for *maxTicks == 0 || seen < *maxTicks {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				logger.Info("stream ended", "err", err)
			}
			return
		}
		ticked, err := handle(os.Stdout, msg)
		if err != nil {
			logger.Warn("bad message", "err", err)
			continue
		}
		if ticked {
			seen++
		}
	}
}

func splitZones(s string) []string {
	var out []string
	for _, z := range strings.Split(s, ",") {
		if z = strings.TrimSpace(z); z != "" {
			out = append(out, z)
		}
	}
	return out
}

// handle prints one line per message and reports whether it was a tick.
func handle(out io.Writer, msg []byte) (bool, error) {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &base); err != nil {
		return false, err
	}
	switch base.Type {
	case "ZONE_TERRAIN":
		var z observerproto.ZoneTerrainMsg
		if err := json.Unmarshal(msg, &z); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "terrain zone=%s encoding=%s bytes=%d\n", z.Zone, z.Encoding, len(z.Data))
		return false, nil
	case "TICK":
		var t observerproto.TickMsg
		if err := json.Unmarshal(msg, &t); err != nil {
			return false, err
		}
		fmt.Fprintln(out, tickLine(t))
		return true, nil
	default:
		return false, fmt.Errorf("unknown type %q", base.Type)
	}
}

func tickLine(t observerproto.TickMsg) string {
	digest := t.Digest
	if len(digest) > 12 {
		digest = digest[:12]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "tick=%d digest=%s pop=%d agents=%d", t.Tick, digest, t.Population.Total, len(t.Agents))

	roles := make([]string, 0, len(t.Population.Roles))
	for r, n := range t.Population.Roles {
		if n > 0 {
			roles = append(roles, fmt.Sprintf("%s:%d", r, n))
		}
	}
	sort.Strings(roles)
	if len(roles) > 0 {
		fmt.Fprintf(&b, " roles=%s", strings.Join(roles, ","))
	}
	if t.Faults > 0 {
		fmt.Fprintf(&b, " faults=%d", t.Faults)
	}
	if len(t.Spawns) > 0 {
		fmt.Fprintf(&b, " spawns=%s", strings.Join(t.Spawns, ","))
	}
	if len(t.Deaths) > 0 {
		fmt.Fprintf(&b, " deaths=%s", strings.Join(t.Deaths, ","))
	}
	return b.String()
}
