package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	wpstack "github.com/wpstack/wpstack"
	"github.com/wpstack/wpstack/internal/awsconf"
	"github.com/wpstack/wpstack/internal/config"
	"github.com/wpstack/wpstack/internal/lint"
	"github.com/wpstack/wpstack/internal/logging"
	"github.com/wpstack/wpstack/internal/lookup"
	"github.com/wpstack/wpstack/internal/template"
	"github.com/wpstack/wpstack/internal/topology"
)

// defaultEnvFile is read when no --env-file is given and it exists.
const defaultEnvFile = ".env"

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	envFiles  []string
	logLevel  string
	logFormat string
	region    string
}

func (o *rootOptions) logger(cmd *cobra.Command) (*logrus.Logger, error) {
	return logging.New(logging.Options{
		Level:  o.logLevel,
		Format: logging.Format(o.logFormat),
		Output: cmd.ErrOrStderr(),
	})
}

// loadConfig reads the configuration from the environment and env files.
func (o *rootOptions) loadConfig() (config.Config, error) {
	files := o.envFiles
	if len(files) == 0 {
		if _, err := os.Stat(defaultEnvFile); err == nil {
			files = []string{defaultEnvFile}
		}
	}
	return config.Load(files...)
}

// awsConfig loads SDK configuration for the --region flag, falling back to
// CDK_DEPLOY_REGION.
func (o *rootOptions) awsConfig(ctx context.Context, cfg config.Config) (aws.Config, error) {
	region := o.region
	if region == "" {
		region = cfg.Region
	}
	return awsconf.Load(ctx, region)
}

// resolve fills environment-dependent configuration from AWS. Zones are
// looked up only when lookupZones is set. With preflight, the caller's
// account must match CDK_DEPLOY_ACCOUNT.
func (o *rootOptions) resolve(ctx context.Context, cfg config.Config, log logrus.FieldLogger, lookupZones, preflight bool) (config.Config, error) {
	if !lookupZones && !preflight {
		return cfg, nil
	}

	awsCfg, err := o.awsConfig(ctx, cfg)
	if err != nil {
		return cfg, err
	}
	client := lookup.New(awsCfg, log)

	if preflight {
		if err := client.VerifyAccount(ctx, cfg.Account); err != nil {
			return cfg, fmt.Errorf("preflight: %w", err)
		}
	}
	return client.Resolve(ctx, cfg, lookupZones)
}

// rendered is a built topology and its template.
type rendered struct {
	topology *topology.Result
	builder  *template.Builder
	template *wpstack.Template
}

// render builds the topology for cfg and renders it.
func render(cfg config.Config) (*rendered, error) {
	res, err := topology.Build(cfg)
	if err != nil {
		return nil, err
	}
	builder := template.NewBuilder(res.Stack)
	tmpl, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("rendering template: %w", err)
	}
	return &rendered{topology: res, builder: builder, template: tmpl}, nil
}

// warnConfig logs configuration lint findings without failing.
func warnConfig(log logrus.FieldLogger, cfg config.Config) {
	for _, issue := range lint.CheckConfig(cfg).Issues {
		entry := log.WithFields(logrus.Fields{"rule": issue.Rule, "path": issue.Path})
		switch issue.Severity {
		case lint.SeverityError, lint.SeverityWarning:
			entry.Warn(issue.Message)
		default:
			entry.Debug(issue.Message)
		}
	}
}

// templateBody is the compact JSON submitted to CloudFormation.
func templateBody(t *wpstack.Template) (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encoding template: %w", err)
	}
	return string(data), nil
}

// writeOutput writes data to path, or to w when path is empty.
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		if _, err := w.Write(data); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func jsonIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func printJSON(w io.Writer, v any) error {
	data, err := jsonIndent(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

var errAborted = errors.New("aborted")

// confirm asks a yes/no question on the command's input.
func confirm(cmd *cobra.Command, question string) error {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	}
	return errAborted
}
