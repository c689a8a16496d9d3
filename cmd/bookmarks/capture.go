package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gvdkamdar/GenUI-for-bookmarks/internal/browser"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/capture"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/checkpoint"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/config"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/logger"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/models"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/storage"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/ui"
)

const sampleFile = "sample.json"

var (
	// Capture command flags
	outputDir     string
	outputFile    string
	targetURL     string
	idleThreshold time.Duration
	nudgeInterval time.Duration
	profileDir    string
	remoteURL     string
	headless      bool
	appendOutput  bool
	noSample      bool
	noWait        bool
	notifications bool
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Record saved posts from a live browser session",
	Long: `Open a browser on the saved posts page and record every post the page
loads while it is scrolled.

The browser keeps its profile between runs, so you only sign in once. After
the page opens, sign in if needed and press ENTER. The page is then scrolled
automatically until no new posts arrive for the idle threshold.

Posts are appended to the output file as newline-delimited JSON, one line per
post, as soon as they are seen. When the run ends on its own a manifest
(<output>.capture.json) is written next to the file to mark it complete.`,
	Example: `  # Capture into ./out/bookmarks.ndjson
  bookmarks capture

  # Longer idle threshold, custom output directory
  bookmarks capture --idle-threshold 15s --output ./captures

  # Attach to a Chrome started with --remote-debugging-port
  bookmarks capture --remote-url ws://127.0.0.1:9222/devtools/browser/<id>`,
	Args: cobra.NoArgs,
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)

	f := captureCmd.Flags()
	f.StringVarP(&outputDir, "output", "o", "", "output directory (default ./out)")
	f.StringVar(&outputFile, "output-file", "", "output file name (default bookmarks.ndjson)")
	f.StringVar(&targetURL, "target-url", "", "page to open (default https://x.com/i/bookmarks)")
	f.DurationVar(&idleThreshold, "idle-threshold", 0, "stop after this long without new posts (default 8s)")
	f.DurationVar(&nudgeInterval, "nudge-interval", 0, "scroll interval (default 1.5s)")
	f.StringVar(&profileDir, "profile-dir", "", "browser profile directory (default .browser-profile)")
	f.StringVar(&remoteURL, "remote-url", "", "DevTools URL of a running browser")
	f.BoolVar(&headless, "headless", false, "run the browser without a window")
	f.BoolVar(&appendOutput, "append", false, "append to the output file instead of truncating it")
	f.BoolVar(&noSample, "no-sample", false, "do not save the first matching response to sample.json")
	f.BoolVar(&noWait, "no-wait", false, "start capturing without waiting for ENTER")
	f.BoolVar(&notifications, "notifications", true, "desktop notification when the capture ends")
}

func captureFlags(cmd *cobra.Command) map[string]interface{} {
	flags := map[string]interface{}{
		"output":         outputDir,
		"output-file":    outputFile,
		"target-url":     targetURL,
		"idle-threshold": idleThreshold,
		"nudge-interval": nudgeInterval,
		"profile-dir":    profileDir,
		"remote-url":     remoteURL,
		"no-sample":      noSample,
		"no-wait":        noWait,
	}
	// booleans with a config counterpart only override when given
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	if cmd.Flags().Changed("append") {
		flags["append"] = appendOutput
	}
	if cmd.Flags().Changed("notifications") {
		flags["notifications"] = notifications
	}
	return flags
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(captureFlags(cmd))
	if err != nil {
		return err
	}
	log := logger.GetLogger()
	notifier := ui.NewNotifier(cfg.Notifications.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := captureSession(ctx, cfg, os.Stdin, log)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("Capture failed")
		if cfg.Notifications.OnError {
			notifier.SendError("Capture failed", err.Error())
		}
		return err
	}

	if summary.State != capture.Terminated {
		ui.PrintWarning(fmt.Sprintf("Capture stopped early; %d posts kept in %s", summary.Records, cfg.OutputPath()))
		ui.PrintWarning("The output is valid but incomplete. Run capture again with --append to continue.")
		return nil
	}

	if cfg.Notifications.OnComplete {
		notifier.SendSuccess("Capture complete", fmt.Sprintf("%d posts saved to %s", summary.Records, cfg.OutputPath()))
	}
	return nil
}

// captureSession runs one capture from browser launch to idle termination.
func captureSession(ctx context.Context, cfg *config.Config, stdin io.Reader, log logger.Logger) (capture.Summary, error) {
	runID := uuid.NewString()
	log = log.WithField("run_id", runID)

	outDir, err := storage.NewManager(cfg.Capture.OutputDirectory)
	if err != nil {
		return capture.Summary{}, err
	}
	outputPath := outDir.Path(cfg.Capture.OutputFile)

	// the manifest only exists for a finished run
	manifest := checkpoint.NewManager(outputPath, log)
	if err := manifest.Delete(); err != nil {
		return capture.Summary{}, err
	}

	ui.PrintInfo("Target", cfg.Capture.TargetURL)
	ui.PrintInfo("Output", outputPath)

	mgr := browser.NewManager(browser.Config{
		RemoteURL:  cfg.Capture.RemoteURL,
		ProfileDir: cfg.Capture.ProfileDirectory,
		Bin:        cfg.Capture.BrowserBin,
		Headless:   cfg.Capture.Headless,
	}, log)
	if _, err := mgr.Start(ctx); err != nil {
		return capture.Summary{}, err
	}
	defer mgr.Close()

	tab, err := browser.OpenTab(ctx, mgr, cfg.Capture.TargetURL, cfg.Capture.ScrollDelta)
	if err != nil {
		return capture.Summary{}, err
	}
	defer tab.Close()

	if cfg.Capture.WaitForSignal {
		if err := waitForEnter(ctx, stdin); err != nil {
			return capture.Summary{}, err
		}
	}

	stream, err := outDir.OpenStream(cfg.Capture.OutputFile, cfg.Capture.AppendOutput)
	if err != nil {
		return capture.Summary{}, err
	}

	if err := tab.Listen(ctx, capture.Matcher(cfg.Capture.MatchPatterns)); err != nil {
		stream.Close()
		return capture.Summary{}, err
	}

	progress := ui.NewCaptureProgress(cfg.Capture.TargetURL, verbose)
	opts := capture.Options{
		IdleThreshold: cfg.Capture.IdleThreshold,
		NudgeInterval: cfg.Capture.NudgeInterval,
		MatchPatterns: cfg.Capture.MatchPatterns,
		OnRecord: func(post models.Post) {
			progress.Record(post.Author.Handle, post.ID)
		},
	}
	if cfg.Capture.DumpSample {
		opts.OnSample = func(body []byte) error {
			if err := outDir.WriteFileAtomic(sampleFile, body); err != nil {
				return err
			}
			log.WithField("path", outDir.Path(sampleFile)).Info("Saved first matching response")
			return nil
		}
	}

	logger.LogComponentStart("capture", map[string]interface{}{
		"run_id": runID,
		"target": cfg.Capture.TargetURL,
		"output": outputPath,
	})
	summary, runErr := capture.NewRunner(tab, stream, opts, log).Run(ctx)
	logger.LogComponentStop("capture", summary.Reason)

	logger.LogMetrics("capture", map[string]interface{}{
		"records":        summary.Records,
		"written":        stream.Count(),
		"responses":      summary.Responses,
		"relevant":       summary.Relevant,
		"duplicates":     summary.Duplicates,
		"parse_failures": summary.ParseFailures,
		"write_failures": summary.WriteFailures,
		"duration":       summary.FinishedAt.Sub(summary.StartedAt),
	})

	if summary.State == capture.Terminated {
		progress.Complete(outputPath, summary.Reason)
		if err := manifest.Save(&checkpoint.Checkpoint{
			RunID:      runID,
			Output:     outputPath,
			Records:    summary.Records,
			Responses:  summary.Relevant,
			State:      summary.State.String(),
			Reason:     summary.Reason,
			StartedAt:  summary.StartedAt,
			FinishedAt: summary.FinishedAt,
		}); err != nil {
			return summary, err
		}
	}
	return summary, runErr
}

// waitForEnter blocks until a line arrives on stdin or ctx ends. EOF counts
// as a line so piped runs proceed.
func waitForEnter(ctx context.Context, stdin io.Reader) error {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		ui.PrintHighlight("Sign in if needed and open the saved posts page, then press ENTER to start.")
	}

	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(stdin).ReadString('\n')
		if err == io.EOF {
			err = nil
		}
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
