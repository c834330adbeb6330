package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/orchestrator"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/snapshot"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/trace"
)

// #region console

// console is the chat REPL. Slash commands stand in for the UI: they
// register, focus and close widgets and dismiss lists.
type console struct {
	orch      *orchestrator.Orchestrator
	sess      *orchestrator.Session
	reg       *snapshot.MemoryRegistry
	out       io.Writer
	freshness time.Duration
	afterTurn func(ctx context.Context)
	info      string
	now       func() time.Time
}

func (c *console) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *console) banner() {
	fmt.Fprintln(c.out, "Intent arbiter ready.")
	if c.info != "" {
		fmt.Fprintf(c.out, "  %s\n", c.info)
	}
	fmt.Fprintln(c.out, "Type a message, /help for UI commands, or /quit to exit.")
}

// run reads turns until EOF, /quit or cancellation. The snapshot is taken
// when the prompt is shown, as a UI would when the user starts typing, and
// rebuilt if it went stale before the line was submitted.
func (c *console) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		snap := c.reg.BuildTurnSnapshot()
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			break
		}
		if quit := c.handleLine(ctx, scanner.Text(), snap); quit {
			break
		}
	}
	return scanner.Err()
}

// handleLine processes one input line and reports whether to quit.
func (c *console) handleLine(ctx context.Context, line string, snap snapshot.TurnSnapshot) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, "/") {
		return c.slash(ctx, line)
	}

	now := c.clock().UnixMilli()
	if !snap.IsFresh(now, c.freshness) {
		snap = c.reg.BuildTurnSnapshot()
	}
	res := c.orch.Dispatch(ctx, orchestrator.RoutingContext{
		Input:    line,
		Session:  c.sess,
		Snapshot: snap,
		NowMs:    now,
	})
	c.printResult(res)
	if c.afterTurn != nil {
		c.afterTurn(ctx)
	}
	return false
}

func (c *console) printResult(res orchestrator.Result) {
	msg := res.Message
	if msg == "" && !res.Handled {
		msg = "Sorry, I couldn't match that to anything."
	}
	fmt.Fprintf(c.out, "\n%s\n", msg)
	if len(res.Options) > 0 && !strings.Contains(msg, "\n1. ") {
		for i, o := range res.Options {
			fmt.Fprintf(c.out, "  %d. %s\n", i+1, o.Label)
		}
	}

	diag := "[" + res.TierLabel + "]"
	if a := res.GroundingAction; a != nil {
		diag += fmt.Sprintf(" %s -> %s", a.Type, a.Target.Identity())
	}
	if len(res.Options) > 0 {
		diag += fmt.Sprintf(" options=%d", len(res.Options))
	}
	fmt.Fprintf(c.out, "%s\n\n", diag)
}

// #endregion console

// #region slash-commands

// slash runs a UI command and reports whether to quit.
func (c *console) slash(ctx context.Context, line string) bool {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(c.out, "/register <id> <label> [| item ...], /open <id>, /close <id>, /ui dismiss, /ui open <id>, /latch, /trace, /quit")
	case "/register":
		w, err := parseWidget(rest)
		if err != nil {
			fmt.Fprintf(c.out, "register: %v\n", err)
			return false
		}
		c.reg.Register(w)
		fmt.Fprintf(c.out, "registered %s (%d items)\n", w.ID, len(w.Items))
	case "/open":
		if _, ok := c.reg.GetWidgetSnapshot(rest); !ok {
			fmt.Fprintf(c.out, "no open widget %q\n", rest)
			return false
		}
		c.reg.SetActive(rest)
		fmt.Fprintf(c.out, "focused %s\n", rest)
	case "/close":
		c.reg.Unregister(rest)
		fmt.Fprintf(c.out, "closed %s\n", rest)
	case "/ui":
		sub, arg, _ := strings.Cut(rest, " ")
		arg = strings.TrimSpace(arg)
		switch {
		case sub == "dismiss":
			if !c.orch.DismissClarification(c.sess) {
				fmt.Fprintln(c.out, "no list to dismiss")
				return false
			}
			fmt.Fprintln(c.out, "list dismissed")
		case sub == "open" && arg != "":
			a := c.uiOpen(arg)
			c.orch.RecordUIAction(c.sess, a, "", c.clock().UnixMilli())
			fmt.Fprintf(c.out, "%s %s (direct)\n", a.Type, a.Target.Identity())
		default:
			fmt.Fprintln(c.out, "usage: /ui dismiss | /ui open <id>")
			return false
		}
		if c.afterTurn != nil {
			c.afterTurn(ctx)
		}
	case "/latch":
		c.printState()
	case "/trace":
		c.printTrace()
	default:
		fmt.Fprintf(c.out, "unknown command %s\n", cmd)
	}
	return false
}

// uiOpen is the action for the user opening id outside chat: a registered
// widget gains focus, anything else is treated as a panel.
func (c *console) uiOpen(id string) orchestrator.GroundingAction {
	if w, ok := c.reg.GetWidgetSnapshot(id); ok {
		c.reg.SetActive(id)
		return orchestrator.GroundingAction{
			Type:     orchestrator.ActionOpenWidget,
			Target:   trace.Target{Kind: "widget", ID: id, Name: w.Label},
			WidgetID: id,
		}
	}
	return orchestrator.GroundingAction{
		Type:   orchestrator.ActionOpenPanel,
		Target: trace.Target{Kind: "panel", ID: id, Name: id},
	}
}

// parseWidget reads "<id> <label words> | item | item".
func parseWidget(line string) (snapshot.Widget, error) {
	parts := strings.Split(line, "|")
	head := strings.Fields(parts[0])
	if len(head) == 0 {
		return snapshot.Widget{}, fmt.Errorf("missing widget id")
	}
	w := snapshot.Widget{ID: head[0], Label: head[0], Kind: "list"}
	if len(head) > 1 {
		w.Label = strings.Join(head[1:], " ")
	}
	for _, p := range parts[1:] {
		label := strings.TrimSpace(p)
		if label == "" {
			continue
		}
		w.Items = append(w.Items, snapshot.Item{
			ID:    w.ID + "-" + strconv.Itoa(len(w.Items)+1),
			Label: label,
		})
	}
	return w, nil
}

func (c *console) printState() {
	if l := c.sess.Latch.Get(); l != nil {
		fmt.Fprintf(c.out, "latch: %s %s (%q) suspended=%v turns=%d\n",
			l.Kind, l.TargetID(), l.WidgetLabel, l.Suspended, l.TurnsSinceLatched)
	} else {
		fmt.Fprintln(c.out, "latch: none")
	}
	if snap := c.sess.Clarification.Get(); snap != nil {
		state := "active"
		if !snap.Active() {
			state = "paused (" + string(snap.PausedReason) + ")"
		}
		fmt.Fprintf(c.out, "list: %s, %d turns, %s\n", state, snap.TurnsSinceSet, strings.Join(snap.Labels(), " | "))
	} else {
		fmt.Fprintln(c.out, "list: none")
	}
}

func (c *console) printTrace() {
	entries := c.sess.Ledger.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(c.out, "trace: empty")
		return
	}
	if len(entries) > 10 {
		entries = entries[:10]
	}
	for _, e := range entries {
		fmt.Fprintf(c.out, "#%-4d %-20s %-24s via %s\n", e.Seq, e.ActionType, e.Target.Identity(), e.ResolverPath)
	}
}

// #endregion slash-commands
