package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/TheMichaelB/triplog/internal/models"
)

// confirm asks a yes/no question on the terminal. Without a terminal the
// answer is no unless assumeYes is set.
func confirm(question string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, fmt.Errorf("%s: refusing without a terminal, pass --yes", question)
	}
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", question)
	return readYes(os.Stdin)
}

func readYes(r io.Reader) (bool, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// resolveID matches ref against ids exactly or as a unique prefix.
func resolveID(kind, ref string, ids []string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", models.NewValidationError(models.ErrCodeRequired, kind, models.ErrNotFound)
	}

	var match string
	for _, id := range ids {
		if id == ref {
			return id, nil
		}
		if strings.HasPrefix(id, ref) {
			if match != "" {
				return "", fmt.Errorf("%s id %q is ambiguous", kind, ref)
			}
			match = id
		}
	}
	if match == "" {
		return "", &models.NotFoundError{Kind: kind, ID: ref}
	}
	return match, nil
}

func vehicleIDs(s models.AppState) []string {
	ids := make([]string, 0, len(s.Vehicles))
	for _, v := range s.Vehicles {
		ids = append(ids, v.ID)
	}
	return ids
}

func legIDs(trip *models.Trip) []string {
	if trip == nil {
		return nil
	}
	ids := make([]string, 0, len(trip.Legs))
	for _, leg := range trip.Legs {
		ids = append(ids, leg.ID)
	}
	return ids
}

func tripIDs(trips []models.Trip) []string {
	ids := make([]string, 0, len(trips))
	for _, t := range trips {
		ids = append(ids, t.ID)
	}
	return ids
}

// splitTags reads a comma separated tag list.
func splitTags(s string) []string {
	var tags []string
	for _, part := range strings.Split(s, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
