package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"grantiv/internal/progress"
)

var (
	flagStatusAccept bool
	flagStatusReject bool
)

var statusCmd = &cobra.Command{
	Use:   "status <application-id> <step>",
	Short: "Move an application to a pipeline step",
	Long: `Move an application to one of the pipeline steps: Drafting, Submitted,
In Review or Outcome. Choosing Outcome asks whether the application was
accepted or rejected unless --accept or --reject is given.`,
	Args: cobra.ExactArgs(2),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&flagStatusAccept, "accept", false, "record the outcome as awarded")
	statusCmd.Flags().BoolVar(&flagStatusReject, "reject", false, "record the outcome as rejected")
	statusCmd.MarkFlagsMutuallyExclusive("accept", "reject")
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, sess, err := newClient()
	if err != nil {
		return err
	}
	app, err := client.GetApplication(rootCtx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load application: %w", err)
	}

	ctrl, err := progress.New(app.ID, app.Status, client, sess, progress.Options{
		Interactive: true,
		Invalidator: client,
		Notifier: progress.NotifierFunc(func(_ string, message string) {
			fmt.Fprintln(os.Stderr, errorStyle.Render(message))
		}),
		Logger: logger,
	})
	if err != nil {
		return err
	}

	res := ctrl.RequestStatusChange(rootCtx, args[1])
	if res.Outcome == progress.OutcomeAwaitingConfirmation {
		decision, err := confirmOutcome()
		if err != nil {
			ctrl.Cancel()
			return err
		}
		res = ctrl.Resolve(rootCtx, decision)
	}

	switch res.Outcome {
	case progress.OutcomeUnchanged:
		fmt.Printf("Already %s\n", res.Status.Wire())
	case progress.OutcomeCommitted:
		fmt.Printf("%s → %s\n", res.Previous.Wire(), res.Status.Wire())
	}
	fmt.Println(renderPipeline(ctrl.Status()))

	if res.Err != nil {
		return res.Err
	}
	return nil
}

func confirmOutcome() (progress.Decision, error) {
	switch {
	case flagStatusAccept:
		return progress.DecisionAccept, nil
	case flagStatusReject:
		return progress.DecisionReject, nil
	}

	fmt.Print("Was the application accepted? [a]ccept / [r]eject: ")
	return readDecision(os.Stdin)
}

// readDecision reads one answer line. A final line without a newline counts.
func readDecision(r io.Reader) (progress.Decision, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
		return 0, fmt.Errorf("no decision given: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "a", "accept", "accepted", "y", "yes":
		return progress.DecisionAccept, nil
	case "r", "reject", "rejected", "n", "no":
		return progress.DecisionReject, nil
	}
	return 0, fmt.Errorf("%w: %q", progress.ErrInvalidDecision, strings.TrimSpace(line))
}
