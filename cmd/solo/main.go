package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/tambolahq/tambola-backend/game"
)

var (
	flagInterval time.Duration
	flagSeed     int64
)

func main() {
	root := &cobra.Command{
		Use:   "solo",
		Short: "Play single-player tambola in the terminal",
		Long: "Deals you a ticket and calls numbers from 1-90. Mark called numbers\n" +
			"and claim patterns before the caller runs dry.",
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Flags().DurationVar(&flagInterval, "interval", 3*time.Second, "delay between automatic calls")
	root.Flags().Int64Var(&flagSeed, "seed", 0, "seed for a reproducible game (0 = random)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// session wraps the game loop with an optional auto-caller.
type session struct {
	g *game.Solo

	mu   sync.Mutex
	stop chan struct{}
}

func run(cmd *cobra.Command, args []string) error {
	g, err := newGame()
	if err != nil {
		return err
	}
	s := &session{g: g}

	fmt.Println("Tambola — Single Player")
	fmt.Println("Commands: start pause call mark <n> claim <pattern> ticket board new quit")
	printTicket(s.g.Ticket())

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		if !s.dispatch(strings.Fields(scanner.Text())) {
			break
		}
		fmt.Print("> ")
	}
	s.stopAuto()
	return scanner.Err()
}

func newGame() (*game.Solo, error) {
	if flagSeed != 0 {
		return game.NewSeededSolo(flagSeed)
	}
	return game.NewSolo()
}

// dispatch executes one command line. Returns false to quit.
func (s *session) dispatch(fields []string) bool {
	if len(fields) == 0 {
		return true
	}
	switch fields[0] {
	case "start":
		if err := s.g.Start(); err != nil {
			fmt.Println("Game is finished. Use `new` for a fresh ticket.")
			return true
		}
		s.startAuto()
	case "pause":
		s.stopAuto()
		fmt.Println("Paused.")
	case "call":
		s.callOnce()
	case "mark":
		if len(fields) < 2 {
			fmt.Println("Usage: mark <number>")
			return true
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Println("Usage: mark <number>")
			return true
		}
		if err := s.g.Mark(n); err != nil {
			fmt.Printf("Cannot mark %d — not called yet or not on your ticket.\n", n)
			return true
		}
		printTicket(s.g.Ticket())
	case "claim":
		if len(fields) < 2 {
			fmt.Println("Patterns:", strings.Join(game.Patterns, ", "))
			return true
		}
		s.claim(strings.Join(fields[1:], " "))
	case "ticket":
		printTicket(s.g.Ticket())
	case "board":
		printBoard(s.g.Called())
	case "new":
		s.stopAuto()
		if err := s.g.Reset(); err != nil {
			fmt.Println("Could not deal a new ticket:", err)
			return true
		}
		fmt.Println("New ticket dealt.")
		printTicket(s.g.Ticket())
	case "quit", "exit":
		return false
	default:
		fmt.Printf("Unknown command %q.\n", fields[0])
	}
	return true
}

func (s *session) callOnce() {
	n, err := s.g.CallNext()
	switch {
	case errors.Is(err, game.ErrSequenceExhausted):
		fmt.Println("All numbers have been called. Game over!")
		s.stopAuto()
	case errors.Is(err, game.ErrGameFinished):
		fmt.Println("Game is finished. Use `new` for a fresh ticket.")
	case err == nil:
		fmt.Printf("Number called: %d (%d left)\n", n, s.g.Remaining())
	}
}

func (s *session) claim(name string) {
	pattern := resolvePattern(name)
	claim, err := s.g.Claim(pattern)
	switch {
	case errors.Is(err, game.ErrAlreadyClaimed):
		fmt.Printf("%s already claimed.\n", pattern)
	case err != nil:
		fmt.Printf("Claim verification failed for %q.\n", name)
	default:
		fmt.Printf("%s claimed at %s!\n", pattern, claim.Time.Format("15:04:05"))
		if pattern == game.PatternFullHousie {
			s.stopAuto()
			fmt.Println("Game finished: Full Housie!")
		}
	}
}

// resolvePattern accepts full names and short aliases. Unknown input passes
// through and fails verification downstream.
func resolvePattern(name string) string {
	switch strings.ToLower(name) {
	case "ff", "first", "five", "first five":
		return game.PatternFirstFive
	case "top", "top line":
		return game.PatternTopLine
	case "mid", "middle", "middle line":
		return game.PatternMiddleLine
	case "bottom", "bottom line":
		return game.PatternBottomLine
	case "full", "housie", "full housie":
		return game.PatternFullHousie
	}
	return name
}

// -------------------- Auto caller --------------------

func (s *session) startAuto() {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	fmt.Printf("Calling a number every %s.\n", flagInterval)
	go func() {
		ticker := time.NewTicker(flagInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				n, err := s.g.CallNext()
				if err != nil {
					if errors.Is(err, game.ErrSequenceExhausted) {
						fmt.Println("\nAll numbers have been called. Game over!")
						fmt.Print("> ")
					}
					s.stopAuto()
					return
				}
				fmt.Printf("\nNumber called: %d (%d left)\n> ", n, s.g.Remaining())
			}
		}
	}()
}

func (s *session) stopAuto() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

// -------------------- Rendering --------------------

func printTicket(t *game.Ticket) {
	border := "+" + strings.Repeat("----+", 9)
	fmt.Println(border)
	for r := 0; r < 3; r++ {
		var b strings.Builder
		b.WriteString("|")
		for c := 0; c < 9; c++ {
			cell := t[r][c]
			switch {
			case cell == nil:
				b.WriteString("    |")
			case cell.Marked:
				b.WriteString(fmt.Sprintf("*%2d |", cell.Number))
			default:
				b.WriteString(fmt.Sprintf(" %2d |", cell.Number))
			}
		}
		fmt.Println(b.String())
		fmt.Println(border)
	}
}

func printBoard(called []int) {
	set := make(map[int]bool, len(called))
	for _, n := range called {
		set[n] = true
	}
	fmt.Printf("Called %d/90:\n", len(called))
	for n := 1; n <= 90; n++ {
		if set[n] {
			fmt.Printf("*%2d ", n)
		} else {
			fmt.Printf(" %2d ", n)
		}
		if n%10 == 0 {
			fmt.Println()
		}
	}
}
