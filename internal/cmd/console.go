package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/GeorgeZeng997/pico-mouse/protocol"
)

// Console is an interactive client for the serial command channel. Each
// shell command builds a protocol line, sends it and prints the gadget's
// acknowledgement.
type Console struct {
	Addr    string        `help:"Gadget command channel address" default:"localhost:3250" env:"PICOMOUSE_CONSOLE_ADDR"`
	Timeout time.Duration `help:"Acknowledgement wait timeout" default:"2s"`
}

// Run is called by kong when the console command is executed.
func (c *Console) Run(logger *slog.Logger) error {
	conn, err := net.Dial("tcp", c.Addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.Addr, err)
	}
	defer func() { _ = conn.Close() }()
	rd := bufio.NewReader(conn)

	exchange := func(sc *ishell.Context, line string) {
		if _, err := conn.Write([]byte(line)); err != nil {
			sc.Err(err)
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(c.Timeout))
		ack, err := rd.ReadString('\n')
		if err != nil {
			sc.Err(fmt.Errorf("no acknowledgement: %w", err))
			return
		}
		sc.Println(strings.TrimSpace(ack))
	}

	sendMotion := func(sc *ishell.Context, btn, dx, dy, wheel, pan int) {
		exchange(sc, protocol.Encode(btn, dx, dy, wheel, pan))
	}

	sh := ishell.New()
	sh.Println("connected to", c.Addr)
	sh.SetPrompt(c.Addr + " > ")

	sh.AddCmd(&ishell.Cmd{
		Name: "move",
		Help: "DX DY",
		Func: func(sc *ishell.Context) {
			vals, err := intArgs(sc.Args, 2)
			if err != nil {
				sc.Err(err)
				return
			}
			sendMotion(sc, 0, vals[0], vals[1], 0, 0)
		},
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "click",
		Help: "[BUTTONS] press and release, default left",
		Func: func(sc *ishell.Context) {
			btn := 1
			if len(sc.Args) > 0 {
				v, err := strconv.Atoi(sc.Args[0])
				if err != nil {
					sc.Err(fmt.Errorf("invalid BUTTONS: %w", err))
					return
				}
				btn = v
			}
			sendMotion(sc, btn, 0, 0, 0, 0)
			sendMotion(sc, 0, 0, 0, 0, 0)
		},
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "scroll",
		Help: "N vertical wheel ticks",
		Func: func(sc *ishell.Context) {
			vals, err := intArgs(sc.Args, 1)
			if err != nil {
				sc.Err(err)
				return
			}
			sendMotion(sc, 0, 0, 0, vals[0], 0)
		},
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "pan",
		Help: "N horizontal wheel ticks",
		Func: func(sc *ishell.Context) {
			vals, err := intArgs(sc.Args, 1)
			if err != nil {
				sc.Err(err)
				return
			}
			sendMotion(sc, 0, 0, 0, 0, vals[0])
		},
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "raw",
		Help: "FIELDS... send a raw line verbatim (no checksum added)",
		Func: func(sc *ishell.Context) {
			exchange(sc, strings.Join(sc.Args, " ")+"\n")
		},
	})

	sh.Run()
	return nil
}

func intArgs(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("expected %d arguments, got %d", n, len(args))
	}
	out := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", a)
		}
		out[i] = v
	}
	return out, nil
}
