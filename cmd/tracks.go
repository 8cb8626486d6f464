package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/auraspace/internal/formatter"
	"github.com/desertthunder/auraspace/internal/library"
	"github.com/desertthunder/auraspace/internal/media"
	"github.com/desertthunder/auraspace/internal/models"
	"github.com/desertthunder/auraspace/internal/services"
	"github.com/desertthunder/auraspace/internal/shared"
	"github.com/desertthunder/auraspace/internal/tasks"
	"github.com/urfave/cli/v3"
)

// TracksAdd registers one track.
//
// Local locations must name an existing file under the media root; their tags fill in any
// metadata not given by flags.
func (r *Runner) TracksAdd(ctx context.Context, cmd *cli.Command) error {
	location := strings.TrimSpace(cmd.StringArg("location"))
	if location == "" {
		return fmt.Errorf("%w: location", shared.ErrMissingArgument)
	}

	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	info := models.TrackInfo{TrackURL: location}

	if !shared.IsExternalURL(location) {
		resolver, err := media.NewResolver(r.config.Media.Root)
		if err != nil {
			return err
		}
		path, ok := resolver.Path(location)
		if !ok {
			return fmt.Errorf("%w: %s is outside the media root", shared.ErrInvalidArgument, location)
		}
		tagged, err := library.ReadInfo(path)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", shared.ErrTrackFileNotFound, location, err)
		}
		info = tagged
		info.TrackURL = location
	}

	if cmd.IsSet("title") {
		info.Title = cmd.String("title")
	}
	if cmd.IsSet("artist") {
		info.Artist = cmd.String("artist")
	}
	if cmd.IsSet("album") {
		info.Album = cmd.String("album")
	}
	if cmd.IsSet("duration") {
		info.Duration = cmd.Int("duration")
	}

	repo, err := r.openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	track := models.NewTrack(0, info)
	if err := repo.Create(track); err != nil {
		return fmt.Errorf("failed to add track: %w", err)
	}

	r.logger.Info("track added", "track_id", track.ID(), "track_url", track.TrackURL())
	return r.writePlain("✓ Added %s (%s)\n", track.Title(), track.ID())
}

// TracksList prints registered tracks, optionally filtered by artist or location kind.
func (r *Runner) TracksList(ctx context.Context, cmd *cli.Command) error {
	criteria := map[string]any{}
	if artist := cmd.String("artist"); artist != "" {
		criteria["artist"] = artist
	}
	if raw := cmd.String("external"); raw != "" {
		external, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%w: --external must be true or false", shared.ErrInvalidArgument)
		}
		criteria["external"] = external
	}

	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	repo, err := r.openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	tracks, err := repo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list tracks: %w", err)
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(tracks, path); err != nil {
			return err
		}
		r.logger.Info("tracks exported", "path", path, "count", len(tracks))
		return r.writePlain("✓ Exported %d track(s) to %s\n", len(tracks), path)
	}

	data, err := formatter.Render(tracks, cmd.String("format"))
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// TracksShow prints one track as JSON.
func (r *Runner) TracksShow(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}

	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	repo, err := r.openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	track, err := repo.Get(id)
	if err != nil {
		return err
	}

	return r.writeJSON(track, cmd.Bool("pretty"))
}

// TracksDelete soft deletes one track. Streams of a deleted track answer 404.
func (r *Runner) TracksDelete(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}

	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	repo, err := r.openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.Delete(id); err != nil {
		return err
	}

	r.logger.Info("track deleted", "track_id", id)
	return r.writePlain("✓ Deleted %s\n", id)
}

// TracksImport registers every unregistered .mp3 file under the media root.
func (r *Runner) TracksImport(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	repo, err := r.openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	result, err := library.NewScanner(r.config.Media.Root, repo, r.logger).Import(ctx)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Imported %d track(s), %d already registered, %d failed\n",
		len(result.Added), result.Skipped, result.Failed)
}

// TracksCheck audits every track and prints the ones that can no longer be served.
//
// Returns an error wrapping [shared.ErrTrackFileNotFound] or [shared.ErrSourceUnreachable]
// when problems are found, so scripts can rely on the exit status.
func (r *Runner) TracksCheck(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	repo, err := r.openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	resolver, err := media.NewResolver(r.config.Media.Root)
	if err != nil {
		return err
	}

	var prober services.Prober
	if !cmd.Bool("offline") {
		prober = r.prober
	}

	prog := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			r.logger.Debug(update.Message, "phase", update.Phase)
		}
	}()

	result, err := tasks.NewAuditor(repo, resolver, prober).Run(ctx, prog, tasks.AuditOpts{
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	})
	close(prog)
	<-done
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(result, true); err != nil {
			return err
		}
	} else {
		for _, check := range result.Problems() {
			r.writePlain("✗ %s  %s  %s (%s)\n", check.TrackID, check.Location, check.Status, check.Detail)
		}
		r.writePlain("%d track(s): %d ok, %d missing, %d unreachable, %d failed\n",
			result.Total, result.Healthy, result.Missing, result.Unreachable, result.Failed)
	}

	switch {
	case result.Missing > 0:
		return fmt.Errorf("%w: %d track(s)", shared.ErrTrackFileNotFound, result.Missing)
	case result.Unreachable > 0:
		return fmt.Errorf("%w: %d track(s)", shared.ErrSourceUnreachable, result.Unreachable)
	case result.Failed > 0:
		return fmt.Errorf("%d track check(s) failed", result.Failed)
	}
	return nil
}
