/*
Copyright 2025 Cloud Conveyor Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package awsstack

import (
	"fmt"

	"github.com/zprobst/cloud-conveyor/pkg/substrate"
)

// Artifacts implements substrate.ArtifactProvider against a single S3
// bucket shared by every application, the one passed to NewArtifacts. Neither
// method performs any I/O: both are naming conventions, exactly as
// substrate.ArtifactProvider documents.
type Artifacts struct {
	bucket string
}

// NewArtifacts returns an Artifacts that names every application's
// bucket as the fixed bucket, typically one bucket per AWS account dedicated
// to build output.
func NewArtifacts(bucket string) *Artifacts {
	return &Artifacts{bucket: bucket}
}

// GetBucket implements substrate.ArtifactProvider.
func (a *Artifacts) GetBucket(app substrate.AppRef) string {
	return a.bucket
}

// GetFolder implements substrate.ArtifactProvider, following the default
// convention its doc comment describes.
func (a *Artifacts) GetFolder(app substrate.AppRef, gitRef string) string {
	return fmt.Sprintf("%s/%s/%s", app.Org, app.App, gitRef)
}

// TemplateURL returns the virtual-hosted-style S3 URL of the
// CloudFormation template an application's build is expected to publish
// alongside its other artifacts for a given sha.
func (a *Artifacts) TemplateURL(app substrate.AppRef, sha string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s/template.yaml", a.GetBucket(app), a.GetFolder(app, sha))
}

var _ substrate.ArtifactProvider = (*Artifacts)(nil)
