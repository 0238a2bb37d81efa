package replay

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/model"
)

const (
	attachmentsHeading = "\n\n###### Attachments"
	relationsHeading   = "\n\n###### Relations"
	startDateHeading   = "\n\n###### Start date\n"
)

// block renders a heading followed by a markdown list. It is empty when
// there are no entries.
func block(heading string, entries []string) string {
	if len(entries) == 0 {
		return ""
	}
	return strings.Join(append([]string{heading}, entries...), "\n- ")
}

func startDateBlock(d *model.Date) string {
	if d == nil {
		return ""
	}
	return startDateHeading + d.String()
}

// uploadAttachments uploads every file and renders the attachment block.
func (r *Replayer) uploadAttachments(ctx context.Context, attachments []model.Attachment) (string, error) {
	entries := make([]string, 0, len(attachments))
	for _, a := range attachments {
		markdown, err := r.upload(ctx, a)
		if err != nil {
			return "", err
		}
		entries = append(entries, fmt.Sprintf("%s: %s\n  %s", a.File, a.Description, markdown))
	}
	return block(attachmentsHeading, entries), nil
}

func (r *Replayer) upload(ctx context.Context, a model.Attachment) (string, error) {
	if r.opts.Attachments == nil {
		return "", fmt.Errorf("attachment %s (%s): no attachment directory configured", a.AttachmentID, a.File)
	}
	name := path.Join(a.AttachmentID, a.File)
	f, err := r.opts.Attachments.Open(name)
	if err != nil {
		return "", fmt.Errorf("opening attachment: %w", err)
	}
	defer f.Close()

	var size string
	if info, err := f.Stat(); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	slog.InfoContext(ctx, "uploading attachment", "file", a.File, "size", size)

	markdown, err := r.target.UploadFile(ctx, a.File, f)
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", name, err)
	}
	return markdown, nil
}
