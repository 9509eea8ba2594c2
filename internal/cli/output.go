package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mcoot/rpsduel/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == OutputJSON {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == OutputJSON {
		data, _ := json.Marshal(map[string]any{
			"error": map[string]string{"message": err.Error()},
		})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintf(o.w, "Error: %s\n", err)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Health:
		o.printHealth(v)
	case response.PlayerList:
		o.printPlayers(v)
	case response.MatchList:
		o.printMatches(v)
	case response.History:
		o.printHistory(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printHealth(h response.Health) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	_, _ = fmt.Fprintf(o.w, "Players online: %d\n", h.Players)
	_, _ = fmt.Fprintf(o.w, "Live matches: %d\n", h.Matches)
}

func (o *Output) printPlayers(l response.PlayerList) {
	if len(l.Players) == 0 {
		_, _ = fmt.Fprintln(o.w, "No players online")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tMATCH")
	for _, p := range l.Players {
		match := p.MatchID
		if match == "" {
			match = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", p.Name, match)
	}
	_ = tw.Flush()
}

func (o *Output) printMatches(l response.MatchList) {
	if len(l.Matches) == 0 {
		_, _ = fmt.Fprintln(o.w, "No live matches")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tCHALLENGER\tACCEPTER\tSCORE\tROUND\tMOVES IN")
	for _, m := range l.Matches {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d/2\n", m.ID, m.PlayerA, m.PlayerB, m.Score, m.Round, m.Pending)
	}
	_ = tw.Flush()
}

func (o *Output) printHistory(h response.History) {
	_, _ = fmt.Fprintf(o.w, "%s: %d played, %d won, %d lost\n",
		h.Player, h.Summary.Matches, h.Summary.Wins, h.Summary.Losses)
	if len(h.Records) == 0 {
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "FINISHED\tOPPONENT\tRESULT\tSCORE")
	for _, r := range h.Records {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			r.FinishedAt.UTC().Format("2006-01-02 15:04"), r.Opponent, resultText(r), r.Score)
	}
	_ = tw.Flush()
}

func resultText(r response.HistoryRecord) string {
	switch r.Reason {
	case "opponent_left":
		return r.Result + " (opponent left)"
	case "left":
		return r.Result + " (left)"
	default:
		return r.Result
	}
}
