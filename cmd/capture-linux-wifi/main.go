// Command capture-linux-wifi is the privileged subprocess: it discovers
// a wireless interface, brings it to monitor mode, and streams frames to
// a supervising parent over a fd pair while accepting channel-tuning
// commands in real time. See the module's source definition flags for
// invocation details.
package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/dauie/capture-linux-wifi/internal/capture"
	"github.com/dauie/capture-linux-wifi/internal/chancontrol"
	"github.com/dauie/capture-linux-wifi/internal/chanmodel"
	"github.com/dauie/capture-linux-wifi/internal/datasource"
	"github.com/dauie/capture-linux-wifi/internal/ifprobe"
	"github.com/dauie/capture-linux-wifi/internal/monitor"
	"github.com/dauie/capture-linux-wifi/internal/nmcoord"
	"github.com/dauie/capture-linux-wifi/internal/opstats"
	"github.com/dauie/capture-linux-wifi/internal/wext"
	"github.com/dauie/capture-linux-wifi/internal/wifilog"
)

func main() {
	inFD := pflag.Int("in-fd", 0, "framework control-plane input file descriptor")
	outFD := pflag.Int("out-fd", 1, "framework control-plane output file descriptor")
	debugTUI := pflag.Bool("debug-tui", false, "show a live operator status dashboard")
	pflag.Parse()

	logger := wifilog.New("main")
	handler := datasource.NewHandler(*inFD, *outFD)
	defer handler.Close()

	var state *monitor.State
	var controller *chancontrol.Controller
	var session *opstats.Session

	handler.SetOpenCB(func(definition string) (string, int, error) {
		def, err := parseSourceDefinition(definition)
		if err != nil {
			return "", 0, err
		}

		st, err := monitor.Bringup(def, logger)
		if err != nil {
			return "", 0, err
		}
		state = st

		session = opstats.NewSession(st.Interface, st.CapInterface, st.Strategy.String())
		controller = &chancontrol.Controller{
			Setter:  selectSetter(st),
			Sink:    handler,
			Counter: &st.SeqChannelFailure,
		}

		if *debugTUI {
			go func() {
				if err := opstats.Run(session); err != nil {
					logger.Error().Err(err).Msg("operator dashboard exited")
				}
			}()
		}

		handler.SetCaptureCB(func() error {
			return runCapture(st, handler, session, logger)
		})

		return st.CapInterface, st.DatalinkType, nil
	})

	handler.SetProbeCB(func(definition string) (bool, error) {
		def, err := parseSourceDefinition(definition)
		if err != nil {
			return false, err
		}
		channels, err := ifprobe.ChannelList(def.Interface, 0, nil, nil)
		if err != nil {
			return false, nil
		}
		return len(channels) > 0, nil
	})

	handler.SetListCB(func() ([]string, error) {
		devices, err := ifprobe.ListWirelessInterfaces()
		if err != nil {
			return nil, err
		}
		entries := make([]string, 0, len(devices))
		for _, d := range devices {
			entries = append(entries, fmt.Sprintf("%s=%d", d.Name, d.Flags))
		}
		return entries, nil
	})

	handler.SetChanTranslateCB(func(chanstr string) (string, []string, error) {
		p, warnings, err := chanmodel.Parse(chanstr)
		if err != nil {
			return "", nil, err
		}
		msgs := make([]string, len(warnings))
		for i, w := range warnings {
			msgs[i] = w.Message
		}
		return chanmodel.Render(p), msgs, nil
	})

	handler.SetChanControlCB(func(chanstr string, seqno uint32) error {
		if controller == nil {
			return fmt.Errorf("channel control requested before open completed")
		}
		p, _, err := chanmodel.Parse(chanstr)
		if err != nil {
			return err
		}
		err = controller.Apply(p, seqno)
		if session != nil {
			session.SetChannelFailures(state.SeqChannelFailure)
			if err == nil {
				session.RecordConfigure(chanmodel.Render(p))
			}
		}
		return err
	})

	handler.SetHopShuffleSpacing(4)

	if err := handler.Loop(); err != nil {
		logger.Error().Err(err).Msg("control loop exited")
	}

	if state != nil {
		if state.ResetNMOnExit {
			nm := nmcoord.Dial()
			if err := nm.Reown(state.Interface); err != nil {
				logger.Info().Err(err).Str("iface", state.Interface).Msg("failed to re-own interface with NetworkManager")
			}
			nm.Close()
		}
		state.Close()
	}
}

func selectSetter(st *monitor.State) chancontrol.Setter {
	if st.UseMac80211 {
		return &chancontrol.Nl80211Setter{Conn: st.NLConn, Family: st.Family, IfIndex: st.IfIndex}
	}
	return &chancontrol.WextSetter{Interface: st.Interface}
}

// runCapture is registered via SetCaptureCB and run on its own goroutine
// by Handler.handleOpen once the open callback succeeds. Its error, if
// any, is reported by the handler as a fatal frame and triggers
// Spindown - runCapture itself only logs and returns it.
func runCapture(st *monitor.State, handler *datasource.Handler, session *opstats.Session, logger zerolog.Logger) error {
	sink := sinkWithStats{Handler: handler, session: session}
	err := capture.Loop(capture.WrapPcapHandle(st.Handle), st.DatalinkType, sink, func() (uint32, error) {
		return wext.GetFlags(st.CapInterface)
	})
	if err != nil {
		logger.Error().Err(err).Str("cap_iface", st.CapInterface).Msg("capture loop terminated")
	}
	return err
}

// sinkWithStats wraps the datasource.Handler so every delivered frame
// also updates the operator dashboard's counters.
type sinkWithStats struct {
	*datasource.Handler
	session *opstats.Session
}

func (s sinkWithStats) SendData(ts time.Time, dlt int, caplen int, data []byte) int {
	r := s.Handler.SendData(ts, dlt, caplen, data)
	if r > 0 && s.session != nil {
		s.session.RecordFrame(caplen)
	}
	if r < 0 && s.session != nil {
		s.session.RecordError()
	}
	return r
}
