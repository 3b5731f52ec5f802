package renewer

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"code.cloudfoundry.org/lager/v3"

	"github.com/18F/cdn-cert-renewer/config"
)

var ErrEmptyDomain = errors.New("domain must not be empty")

// ChallengePublisher is implemented by challenge.Publisher.
type ChallengePublisher interface {
	Publish(token, validation string) error
	Unpublish(token string) error
}

// Runner executes the external certbot process and captures its output.
type Runner interface {
	Run(name string, args ...string) (stdout, stderr []byte, err error)
}

type ExecRunner struct{}

func (ExecRunner) Run(name string, args ...string) ([]byte, []byte, error) {
	var outBuf, errBuf bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// Orchestrator drives certbot in manual HTTP-01 mode. Certbot calls back
// into this binary's deploy and cleanup subcommands as separate processes,
// so the only state shared with the hooks is the environment and the
// filesystem.
type Orchestrator struct {
	Settings  config.Settings
	Logger    lager.Logger
	Publisher ChallengePublisher
	Runner    Runner

	// HookExe is the command certbot invokes for the auth and cleanup
	// hooks, normally the path of the running binary.
	HookExe string
}

func NewOrchestrator(settings config.Settings, logger lager.Logger, publisher ChallengePublisher) *Orchestrator {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	return &Orchestrator{
		Settings:  settings,
		Logger:    logger,
		Publisher: publisher,
		Runner:    ExecRunner{},
		HookExe:   exe,
	}
}

// Run performs one renewal: validate the domain, prepare the certbot
// directories, and run certbot to completion.
func (o *Orchestrator) Run() error {
	if o.Settings.Domain == "" {
		return ErrEmptyDomain
	}

	lsession := o.Logger.Session("renew", lager.Data{
		"domain":  o.Settings.Domain,
		"staging": o.Settings.Staging(),
	})

	if err := o.prepareDirs(); err != nil {
		lsession.Error("prepare-dirs", err)
		return err
	}

	args := o.CertbotArgs()
	lsession.Info("run-certbot", lager.Data{"bin": o.Settings.CertbotBin, "args": args})

	stdout, stderr, err := o.Runner.Run(o.Settings.CertbotBin, args...)
	if err != nil {
		lsession.Error("run-certbot", err, lager.Data{
			"stdout": string(stdout),
			"stderr": string(stderr),
		})
		return fmt.Errorf("running certbot: %w", err)
	}

	lsession.Info("certificate-obtained", lager.Data{"stdout": string(stdout)})
	return nil
}

func (o *Orchestrator) prepareDirs() error {
	dirs := []string{
		o.Settings.WebrootPath,
		o.Settings.CertbotLogDir(),
		o.Settings.CertbotWorkDir(),
		o.Settings.CertbotConfigDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) CertbotArgs() []string {
	args := []string{
		"certonly",
		"--manual",
		"--preferred-challenges", "http",
		"--manual-auth-hook", fmt.Sprintf("%s deploy", o.HookExe),
		"--manual-cleanup-hook", fmt.Sprintf("%s cleanup", o.HookExe),
		"-d", o.Settings.Domain,
		"--agree-tos",
		"--non-interactive",
		"--logs-dir", o.Settings.CertbotLogDir(),
		"--config-dir", o.Settings.CertbotConfigDir(),
		"--work-dir", o.Settings.CertbotWorkDir(),
	}
	if o.Settings.Email != "" {
		args = append(args, "--email", o.Settings.Email)
	} else {
		args = append(args, "--register-unsafely-without-email")
	}
	if o.Settings.Staging() {
		args = append(args, "--staging")
	}
	return args
}

// Deploy is the auth hook: it serves the validation from the local webroot
// and publishes it to the bucket. Neither failure aborts the run; certbot
// fails the validation itself when it cannot fetch the URL.
func (o *Orchestrator) Deploy(domain, token, validation string) error {
	lsession := o.Logger.Session("deploy", lager.Data{"domain": domain, "token": token})

	file := filepath.Join(o.Settings.WebrootPath, token)
	if err := os.MkdirAll(o.Settings.WebrootPath, 0755); err != nil {
		lsession.Error("webroot-mkdir", err)
	} else if err := os.WriteFile(file, []byte(validation), 0644); err != nil {
		lsession.Error("webroot-write", err, lager.Data{"path": file})
	} else {
		lsession.Info("webroot-write", lager.Data{"path": file})
	}

	if err := o.Publisher.Publish(token, validation); err != nil {
		lsession.Error("publish", err)
	}
	return nil
}

// Cleanup is the cleanup hook: best-effort removal of the webroot file and
// the bucket object.
func (o *Orchestrator) Cleanup(domain, token string) error {
	lsession := o.Logger.Session("cleanup", lager.Data{"domain": domain, "token": token})

	file := filepath.Join(o.Settings.WebrootPath, token)
	if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
		lsession.Error("webroot-remove", err, lager.Data{"path": file})
	}

	if err := o.Publisher.Unpublish(token); err != nil {
		lsession.Error("unpublish", err)
	}
	return nil
}
