package sh

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/vndmesh/pkg/app"
	"github.com/robotalks/vndmesh/pkg/board"
	"github.com/robotalks/vndmesh/pkg/board/joystick"
	"github.com/robotalks/vndmesh/pkg/env"
	fx "github.com/robotalks/vndmesh/pkg/framework"
)

// Shell provides ishell backed interactive shell driving a button client node.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Config *env.Config
	Env    *env.Env
	App    *app.ButtonClient

	cancel func()
	loop   *fx.Loop
	runner *fx.Runner
}

// Timeouts of Start and Stop.
var (
	ConnectTimeout = 10 * time.Second
	FlushTimeout   = 2 * time.Second
)

var errConnectTimeout = errors.New("timed out connecting bearer")

const shellKey = "$shell"

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&PressCmd,
		&ReleaseCmd,
		&ClickCmd,
		&LEDSetCmd,
		&LEDGetCmd,
		&LEDsCmd,
		&NodesCmd,
		&StatusCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := newShell(conf)
	s.Shell = ishell.New()
	s.Shell.Set(shellKey, s)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

func newShell(conf *env.Config) *Shell {
	return &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Config:      conf,
	}
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Start creates the node, runs its loop in background and waits until
// the bearer is able to send.
func (s *Shell) Start() error {
	e, err := s.Config.NewEnv(s.Config.ClientModel())
	if err != nil {
		return err
	}
	s.Env = e
	s.App = app.NewButtonClient(board.NewLEDs(board.DefaultCount), board.DefaultCount).Attach(e.Model)
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	loop := fx.NewLoop().Add(e, s.App)
	if in := joystick.Default().NewInput(s.App.Buttons); in != nil {
		loop.Add(in)
	}
	s.loop = loop
	s.runner = fx.NewRunnerWith(ctx).Go(loop)

	timer := time.NewTimer(ConnectTimeout)
	defer timer.Stop()
	select {
	case <-e.Ready():
	case <-s.runner.Failed():
		s.cancel = nil
		cancel()
		return s.runner.Wait()
	case <-timer.C:
		s.Stop()
		return errConnectTimeout
	}
	if s.Shell != nil {
		s.Shell.SetPrompt(fmt.Sprintf("%s > ", e.Node.Addr))
	}
	return nil
}

// Stop sends whatever button events are still queued and stops the
// node loop.
func (s *Shell) Stop() error {
	if s.cancel == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), FlushTimeout)
	if err := s.loop.Sync(ctx); err != nil {
		log.Printf("flush: %v", err)
	}
	cancel()
	s.cancel()
	s.cancel = nil
	return s.runner.Wait()
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// print writes the result of a command, nil means OK.
func (s *Shell) print(c *ishell.Context, v interface{}) {
	if s.OutputJSON {
		if v == nil {
			v = map[string]bool{"ok": true}
		}
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	if v == nil {
		c.Println("OK")
		return
	}
	c.Println(v)
}

// cmdFunc adapts a Shell method into an ishell command func.
func cmdFunc(fn func(s *Shell, args []string) (interface{}, error)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		s := ShellFrom(c)
		if s.App == nil {
			c.Err(errNotStarted)
			return
		}
		v, err := fn(s, c.Args)
		if err != nil {
			c.Err(err)
			return
		}
		s.print(c, v)
	}
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	s := New(env.NewConfig())
	if err := s.Start(); err != nil {
		log.Fatalln(err)
	}
	s.Run(flag.Args()...)
	if err := s.Stop(); err != nil {
		log.Println(err)
	}
}
