package ui

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/arthur-debert/ndetect/pkg/similarity"
)

// Action is the user's per-group decision
type Action int

const (
	// ActionMove consolidates the group's duplicates into the holding dir
	ActionMove Action = iota
	// ActionKeep leaves the group alone
	ActionKeep
	// ActionDelete removes the group's duplicates instead of moving them
	ActionDelete
	// ActionInfo requests pairwise similarity detail, then re-prompts
	ActionInfo
	// ActionQuit aborts the run without touching remaining groups
	ActionQuit
)

// Decision carries the chosen action and, for explicit keeper selection,
// the file to keep. An empty Keeper defers to the retention strategy.
type Decision struct {
	Action Action
	Keeper string
}

// Prompter asks the user what to do with each duplicate group. Input and
// output are injectable so the loop is testable without a terminal.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter builds a prompter over the given streams
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Prompt asks for a decision on one group. End of input is treated as
// quit so a closed stdin cannot loop forever.
func (p *Prompter) Prompt(group similarity.Group) (Decision, error) {
	for {
		fmt.Fprintf(p.out, "Group %d: [m]ove duplicates  [k]eep all  [d]elete duplicates  [s]elect keeper  [i]nfo  [q]uit: ", group.ID)
		line, err := p.readLine()
		if err != nil {
			if err == io.EOF {
				return Decision{Action: ActionQuit}, nil
			}
			return Decision{}, err
		}

		switch line {
		case "", "m", "move":
			return Decision{Action: ActionMove}, nil
		case "k", "keep":
			return Decision{Action: ActionKeep}, nil
		case "d", "delete":
			return Decision{Action: ActionDelete}, nil
		case "i", "info":
			return Decision{Action: ActionInfo}, nil
		case "q", "quit":
			return Decision{Action: ActionQuit}, nil
		case "s", "select":
			keeper, ok, err := p.selectKeeper(group)
			if err != nil {
				return Decision{}, err
			}
			if !ok {
				continue
			}
			return Decision{Action: ActionMove, Keeper: keeper}, nil
		default:
			fmt.Fprintf(p.out, "Unrecognized choice %q\n", line)
		}
	}
}

// selectKeeper lists the group's files and reads a 1-based index. A blank
// or invalid answer returns ok=false so the caller re-prompts.
func (p *Prompter) selectKeeper(group similarity.Group) (string, bool, error) {
	for i, path := range group.Files {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, path)
	}
	fmt.Fprint(p.out, "Keep which file? ")

	line, err := p.readLine()
	if err != nil {
		if err == io.EOF {
			return "", false, nil
		}
		return "", false, err
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(group.Files) {
		fmt.Fprintf(p.out, "Expected a number between 1 and %d\n", len(group.Files))
		return "", false, nil
	}
	return group.Files[n-1], true, nil
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}
