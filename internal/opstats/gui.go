package opstats

import (
	"errors"
	"time"

	"github.com/jroimartin/gocui"
)

func checkDimensions(mY int, mX int) error {
	if mY < 10 || mX < 10 {
		return errors.New("window dimensions not in bounds")
	}
	return nil
}

func initGui() (*gocui.Gui, error) {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return nil, err
	}
	g.Cursor = false
	g.Mouse = false
	return g, nil
}

func quit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}

func keybindings(g *gocui.Gui) error {
	return g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, quit)
}

func statusView(g *gocui.Gui, session *Session) error {
	mX, mY := g.Size()
	if err := checkDimensions(mX, mY); err != nil {
		return nil
	}
	view, err := g.SetView("status", 0, 0, mX-1, mY-1)
	if err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		view.Frame = true
		view.Title = "capture-linux-wifi"
		view.FgColor = gocui.ColorGreen
	}
	view.Clear()
	_, err = view.Write([]byte(session.Snapshot().String()))
	return err
}

// Run opens a gocui dashboard showing session's live counters, refreshing
// once a second, until the operator presses Ctrl-C. Intended to run on
// its own goroutine gated by the --debug-tui flag; it never touches
// capture or control-plane state directly; it only reads Session.
func Run(session *Session) error {
	g, err := initGui()
	if err != nil {
		return err
	}
	defer g.Close()

	if err := keybindings(g); err != nil {
		return err
	}
	g.SetManagerFunc(func(g *gocui.Gui) error {
		return statusView(g, session)
	})

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-ticker.C:
				g.Update(func(g *gocui.Gui) error {
					return statusView(g, session)
				})
			case <-stop:
				return
			}
		}
	}()

	if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}
	return nil
}
