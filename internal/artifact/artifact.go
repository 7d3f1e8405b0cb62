package artifact

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/tgreport/internal/apperr"
	"github.com/rs/zerolog"
)

const servicePath = "/twirp/github.actions.results.api.v1.ArtifactService/"

// Client uploads workflow artifacts through the Actions results service.
type Client struct {
	baseURL      string
	token        string
	runBackendID string
	jobBackendID string
	httpCli      *http.Client
	log          zerolog.Logger
}

// NewFromEnv creates a client from ACTIONS_RUNTIME_TOKEN and
// ACTIONS_RESULTS_URL, which the runner only exposes inside a job.
func NewFromEnv(getenv func(string) string, log zerolog.Logger) (*Client, error) {
	token := getenv("ACTIONS_RUNTIME_TOKEN")
	if token == "" {
		return nil, apperr.New(apperr.KindConfiguration, "ACTIONS_RUNTIME_TOKEN is not set")
	}
	resultsURL := getenv("ACTIONS_RESULTS_URL")
	if resultsURL == "" {
		return nil, apperr.New(apperr.KindConfiguration, "ACTIONS_RESULTS_URL is not set")
	}
	return New(resultsURL, token, log)
}

// New creates a client for the results service at resultsURL.
func New(resultsURL, token string, log zerolog.Logger) (*Client, error) {
	u, err := url.Parse(resultsURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, apperr.Newf(apperr.KindConfiguration, "invalid results URL %q", resultsURL)
	}
	run, job, err := backendIDs(token)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:      u.Scheme + "://" + u.Host,
		token:        token,
		runBackendID: run,
		jobBackendID: job,
		httpCli:      &http.Client{Timeout: 5 * time.Minute},
		log:          log,
	}, nil
}

// backendIDs reads the workflow run and job ids from the runtime token's
// "Actions.Results:<run>:<job>" scope.
func backendIDs(token string) (run, job string, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", "", apperr.New(apperr.KindConfiguration, "runtime token is not a JWT")
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return "", "", apperr.Wrap(err, apperr.KindConfiguration, "decoding runtime token")
	}
	var claims struct {
		Scp string `json:"scp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", "", apperr.Wrap(err, apperr.KindConfiguration, "parsing runtime token claims")
	}
	for _, scope := range strings.Fields(claims.Scp) {
		fields := strings.Split(scope, ":")
		if len(fields) == 3 && fields[0] == "Actions.Results" {
			return fields[1], fields[2], nil
		}
	}
	return "", "", apperr.New(apperr.KindConfiguration, "runtime token has no Actions.Results scope")
}

// Upload zips files, stored relative to root, into an artifact called name.
func (c *Client) Upload(ctx context.Context, name string, files []string, root string) error {
	archive, err := zipFiles(files, root)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(archive)

	var created struct {
		OK              bool   `json:"ok"`
		SignedUploadURL string `json:"signed_upload_url"`
	}
	err = c.call(ctx, "CreateArtifact", map[string]any{
		"workflow_run_backend_id":     c.runBackendID,
		"workflow_job_run_backend_id": c.jobBackendID,
		"name":                        name,
		"version":                     4,
	}, &created)
	if err != nil {
		return err
	}
	if !created.OK || created.SignedUploadURL == "" {
		return apperr.Newf(apperr.KindUpload, "results service refused to create artifact %q", name)
	}

	if err := c.putBlob(ctx, created.SignedUploadURL, archive); err != nil {
		return err
	}

	var finalized struct {
		OK         bool   `json:"ok"`
		ArtifactID string `json:"artifact_id"`
	}
	err = c.call(ctx, "FinalizeArtifact", map[string]any{
		"workflow_run_backend_id":     c.runBackendID,
		"workflow_job_run_backend_id": c.jobBackendID,
		"name":                        name,
		"size":                        strconv.Itoa(len(archive)),
		"hash":                        "sha256:" + hex.EncodeToString(sum[:]),
	}, &finalized)
	if err != nil {
		return err
	}
	if !finalized.OK {
		return apperr.Newf(apperr.KindUpload, "results service refused to finalize artifact %q", name)
	}

	c.log.Debug().Str("artifact", name).Str("id", finalized.ArtifactID).Int("bytes", len(archive)).Msg("Artifact finalized")
	return nil
}

func (c *Client) call(ctx context.Context, method string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return apperr.Wrap(err, apperr.KindUpload, "marshaling request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+servicePath+method, bytes.NewReader(body))
	if err != nil {
		return apperr.Wrap(err, apperr.KindUpload, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return apperr.Wrapf(err, apperr.KindUpload, "%s request failed", method)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Wrap(err, apperr.KindUpload, "reading response")
	}
	if resp.StatusCode != http.StatusOK {
		var twirpErr struct {
			Code string `json:"code"`
			Msg  string `json:"msg"`
		}
		if json.Unmarshal(data, &twirpErr) == nil && twirpErr.Msg != "" {
			return apperr.Newf(apperr.KindUpload, "%s: %s (%s)", method, twirpErr.Msg, twirpErr.Code)
		}
		return apperr.Newf(apperr.KindUpload, "%s: HTTP %d", method, resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperr.Wrapf(err, apperr.KindUpload, "parsing %s response", method)
	}
	return nil
}

func (c *Client) putBlob(ctx context.Context, signedURL string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signedURL, bytes.NewReader(data))
	if err != nil {
		return apperr.Wrap(err, apperr.KindUpload, "creating blob request")
	}
	req.Header.Set("x-ms-blob-type", "BlockBlob")
	req.Header.Set("Content-Type", "application/zip")
	req.ContentLength = int64(len(data))

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return apperr.Wrap(err, apperr.KindUpload, "uploading blob")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperr.Newf(apperr.KindUpload, "blob upload returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// zipFiles builds an in-memory archive with entries named relative to root.
func zipFiles(files []string, root string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, path := range files {
		rel, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			rel = filepath.Base(path)
		}
		if err := addFile(zw, path, filepath.ToSlash(rel)); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, apperr.Wrap(err, apperr.KindIO, "finishing archive")
	}
	return buf.Bytes(), nil
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return apperr.Wrapf(err, apperr.KindIO, "opening %s", path)
	}
	defer f.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: time.Now()})
	if err != nil {
		return apperr.Wrap(err, apperr.KindIO, "adding archive entry")
	}
	if _, err := io.Copy(w, f); err != nil {
		return apperr.Wrapf(err, apperr.KindIO, "compressing %s", path)
	}
	return nil
}

// String identifies the backend, for logs.
func (c *Client) String() string {
	return fmt.Sprintf("results service %s (run %s, job %s)", c.baseURL, c.runBackendID, c.jobBackendID)
}
