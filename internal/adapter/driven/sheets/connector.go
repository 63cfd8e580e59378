// Package sheets implements the Table port on a Google spreadsheet.
//
// The spreadsheet is located by exact title through the Drive API and its
// first worksheet holds the meal rows. Authorization uses a service account
// key with spreadsheet read/write and Drive metadata read scopes.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/ericfisherdev/mealtracker/internal/domain/port/driven"
)

// Scopes requested for the service account.
var Scopes = []string{
	gsheets.SpreadsheetsScope,
	drive.DriveMetadataReadonlyScope,
}

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// ErrSpreadsheetNotFound is returned by Connect when no spreadsheet with the
// configured title is visible to the service account.
var ErrSpreadsheetNotFound = errors.New("spreadsheet not found")

// ErrNoCredentials is returned by Connect when no service account key was
// configured.
var ErrNoCredentials = errors.New("no google service account credentials configured")

// Compile-time interface satisfaction check.
var _ driven.TableConnector = (*Connector)(nil)

// Connector opens the spreadsheet with a fixed title.
type Connector struct {
	title       string
	credentials []byte // Service account key JSON.

	// Set only by NewConnectorWithHTTPClient.
	httpClient *http.Client
	baseURL    string
}

// NewConnector creates a Connector for the spreadsheet with the given title.
// The service account key is parsed on Connect, so a bad key surfaces as a
// connection failure rather than a startup failure.
func NewConnector(title string, credentialsJSON []byte) *Connector {
	return &Connector{
		title:       title,
		credentials: credentialsJSON,
	}
}

// NewConnectorWithHTTPClient creates a Connector that talks to baseURL with
// the given client and no authorization. It is intended for testing with an
// httptest server: Drive requests go to baseURL/drive/v3/ and Sheets
// requests to baseURL/v4/.
func NewConnectorWithHTTPClient(httpClient *http.Client, baseURL, title string) *Connector {
	return &Connector{
		title:      title,
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// Connect authorizes, finds the spreadsheet by title and resolves its first
// worksheet.
func (c *Connector) Connect(ctx context.Context) (driven.Table, error) {
	driveOpts, sheetsOpts, err := c.clientOptions(ctx)
	if err != nil {
		return nil, err
	}

	driveSvc, err := drive.NewService(ctx, driveOpts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	sheetsSvc, err := gsheets.NewService(ctx, sheetsOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	spreadsheetID, err := c.findSpreadsheet(ctx, driveSvc)
	if err != nil {
		return nil, err
	}

	ss, err := sheetsSvc.Spreadsheets.Get(spreadsheetID).
		Fields(googleapi.Field("sheets.properties")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet %q: %w", c.title, err)
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return nil, fmt.Errorf("spreadsheet %q has no worksheets", c.title)
	}

	return &Table{
		svc:           sheetsSvc,
		spreadsheetID: spreadsheetID,
		sheetTitle:    ss.Sheets[0].Properties.Title,
	}, nil
}

// clientOptions builds the option sets for the Drive and Sheets services.
func (c *Connector) clientOptions(ctx context.Context) ([]option.ClientOption, []option.ClientOption, error) {
	if c.httpClient != nil {
		driveOpts := []option.ClientOption{
			option.WithHTTPClient(c.httpClient),
			option.WithEndpoint(c.baseURL + "/drive/v3/"),
		}
		sheetsOpts := []option.ClientOption{
			option.WithHTTPClient(c.httpClient),
			option.WithEndpoint(c.baseURL + "/"),
		}
		return driveOpts, sheetsOpts, nil
	}

	if len(c.credentials) == 0 {
		return nil, nil, ErrNoCredentials
	}
	conf, err := google.JWTConfigFromJSON(c.credentials, Scopes...)
	if err != nil {
		return nil, nil, fmt.Errorf("parse service account key: %w", err)
	}

	// The token source outlives the request that triggered Connect.
	ts := conf.TokenSource(context.WithoutCancel(ctx))
	opts := []option.ClientOption{option.WithTokenSource(ts)}
	return opts, opts, nil
}

// findSpreadsheet returns the ID of the first spreadsheet named c.title.
func (c *Connector) findSpreadsheet(ctx context.Context, svc *drive.Service) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		escapeQueryValue(c.title), spreadsheetMimeType)

	list, err := svc.Files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("search spreadsheet %q: %w", c.title, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("%w: %q", ErrSpreadsheetNotFound, c.title)
	}
	return list.Files[0].Id, nil
}

// escapeQueryValue escapes a string literal for a Drive search query.
func escapeQueryValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
