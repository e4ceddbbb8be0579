// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"errors"
	"fmt"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
)

// DefaultKeyDisplayName is the display name of the API key looked up by
// APIKeyFromADC when none is configured.
const DefaultKeyDisplayName = "ProjectMap Geocoding Key"

// ADCLookup describes where to find the geocoding key with Application Default
// Credentials.
type ADCLookup struct {
	// ProjectID is used when the credentials do not carry one.
	ProjectID string
	// DisplayName identifies the key among the project's keys.
	DisplayName string
}

// APIKeyFromADC retrieves the key string of the API key named
// lookup.DisplayName from the Google Cloud project of the default credentials.
func APIKeyFromADC(ctx context.Context, lookup ADCLookup, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	displayName := lookup.DisplayName
	if displayName == "" {
		displayName = DefaultKeyDisplayName
	}

	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return "", fmt.Errorf("finding default credentials: %w", err)
	}

	projectID := creds.ProjectID
	if projectID == "" {
		// user credentials without a quota project
		projectID = lookup.ProjectID
		if projectID == "" {
			return "", errors.New("no project id in default credentials and none configured")
		}

		logger.Warn("no project id found in credentials, using configured project", zap.String("project", projectID))
	}

	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}
	defer client.Close()

	it := client.ListKeys(ctx, &apikeyspb.ListKeysRequest{
		Parent: fmt.Sprintf("projects/%s/locations/global", projectID),
	})

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.GetDisplayName() != displayName {
			continue
		}

		// ListKeys redacts the key string.
		logger.Info("found api key resource, retrieving secret", zap.String("name", key.GetName()))

		resp, err := client.GetKeyString(ctx, &apikeyspb.GetKeyStringRequest{Name: key.GetName()})
		if err != nil {
			return "", fmt.Errorf("getting key string: %w", err)
		}

		if resp.GetKeyString() == "" {
			return "", fmt.Errorf("key '%s' found but its key string is empty", displayName)
		}

		return resp.GetKeyString(), nil
	}

	return "", fmt.Errorf("key with display name '%s' not found in project %s", displayName, projectID)
}
