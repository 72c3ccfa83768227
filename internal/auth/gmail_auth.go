// Package auth builds the authenticated Gmail client used by the mailbox
// watcher.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/justsurfingit/job-success-tracker/internal/config"
)

// NewGmailService authorizes read-only Gmail access with the OAuth client
// in cfg.CredentialsFile. The user token is read from cfg.TokenFile; when
// it is missing the user is asked to authorize on stdin once.
func NewGmailService(ctx context.Context, cfg config.GmailConfig, log logrus.FieldLogger) (*gmail.Service, error) {
	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, errors.Wrap(err, "read gmail client secret")
	}
	oc, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, errors.Wrap(err, "parse gmail client secret")
	}

	tok, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		log.WithField("token_file", cfg.TokenFile).Warn("no stored gmail token, starting authorization")
		tok, err = tokenFromWeb(ctx, oc, os.Stdin, os.Stdout)
		if err != nil {
			return nil, err
		}
		if err := saveToken(cfg.TokenFile, tok); err != nil {
			return nil, err
		}
		log.WithField("token_file", cfg.TokenFile).Info("gmail token saved")
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(oc.Client(ctx, tok)))
	if err != nil {
		return nil, errors.Wrap(err, "create gmail service")
	}
	return svc, nil
}

func tokenFromWeb(ctx context.Context, oc *oauth2.Config, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	authURL := oc.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Open this link to authorize Gmail access:\n%v\n\nPaste the authorization code here: ", authURL)

	var code string
	if _, err := fmt.Fscan(in, &code); err != nil {
		return nil, errors.Wrap(err, "read authorization code")
	}
	tok, err := oc.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "exchange authorization code")
	}
	return tok, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, errors.Wrapf(err, "decode token %s", path)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return errors.Wrap(err, "cache oauth token")
	}
	defer f.Close()
	return errors.Wrap(json.NewEncoder(f).Encode(tok), "encode oauth token")
}
