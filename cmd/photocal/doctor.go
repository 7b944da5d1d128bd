package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-photocal"
	"github.com/alnah/go-photocal/internal/assets"
	"github.com/alnah/go-photocal/internal/config"
	"github.com/alnah/go-photocal/internal/fileutil"
	"github.com/alnah/go-photocal/internal/hints"
)

// Doctor status values.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Chrome   chromeInfo `json:"chrome"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Service  svcInfo    `json:"service"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// svcInfo holds checks against the effective service configuration.
type svcInfo struct {
	Port         int    `json:"port"`
	PortFree     bool   `json:"port_free"`
	AssetDir     string `json:"asset_dir"`
	AssetsLoaded bool   `json:"assets_loaded"`
	Template     string `json:"template,omitempty"` // "custom" or "embedded"
	StaticDir    string `json:"static_dir"`
	StaticFound  bool   `json:"static_found"`
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	common commonFlags
	json   bool
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found, 2 = bad flags.
func runDoctorCmd(args []string, env *Environment) int {
	f := &doctorFlags{}
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	addCommonFlags(fs, &f.common)
	fs.BoolVar(&f.json, "json", false, "machine-readable output")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(env.Stderr, "error:", err)
		return ExitUsage
	}

	result := runDoctor(f.common.config)

	if f.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(configName string) *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
	}

	checkChrome(result)
	checkEnvironment(result)
	checkSystem(result)
	checkService(result, configName)

	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}

	return result
}

// checkChrome detects Chrome/Chromium installation.
// A missing browser is only a warning: rod downloads Chromium on first use.
func checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.Warnings = append(result.Warnings,
				"Chrome/Chromium not found; it will be downloaded on the first export. Set ROD_BROWSER_BIN to use an installed browser")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	// #nosec G204 -- chromePath comes from ROD_BROWSER_BIN or rod's lookup
	out, err := exec.Command(chromePath, "--version").Output()
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	if os.Getenv("PHOTOCAL_CONTAINER") == "1" {
		return true, "PHOTOCAL_CONTAINER=1"
	}
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies a staging directory can be created and removed.
func checkSystem(result *doctorResult) {
	dir, err := photocal.NewStagingDir("")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", os.TempDir()))
		return
	}
	if err := dir.Release(); err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not remove test staging directory: %v", err))
	}
	result.System.TempWritable = true
}

// checkService loads the effective configuration and probes what the
// server needs at startup.
func checkService(result *doctorResult, configName string) {
	envCfg := loadEnvConfig()
	flags := &serveFlags{common: commonFlags{config: configName}}
	cfg, err := resolveConfig(flags, envCfg)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Configuration: %v", hintless(err)))
		cfg = config.DefaultConfig()
	}

	svc := &result.Service
	svc.Port = cfg.Server.Port
	svc.AssetDir = cfg.Assets.Dir
	svc.StaticDir = cfg.Server.StaticDir

	if ln, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.Server.Port)); err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Port %d unavailable: %s", cfg.Server.Port, hints.Plain(hints.ForPortInUse(strconv.Itoa(cfg.Server.Port)))))
	} else {
		_ = ln.Close()
		svc.PortFree = true
	}

	if _, err := photocal.NewCompiler(photocal.CompilerConfig{AssetDir: cfg.Assets.Dir}); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Assets: %v", err))
	} else {
		svc.AssetsLoaded = true
		if r, err := assets.NewAssetResolver(cfg.Assets.Dir); err == nil {
			svc.Template, _ = r.TemplateOrigin(assets.CalendarTemplateName)
		}
	}

	svc.StaticFound = fileutil.DirExists(cfg.Server.StaticDir)
	if !svc.StaticFound {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Static directory %s not found; / will answer 404", cfg.Server.StaticDir))
	}
}

// hintless drops hint lines appended to an error message.
func hintless(err error) string {
	msg, _, _ := strings.Cut(err.Error(), "\n")
	return msg
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "photocal doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Service")
	fmt.Fprintf(w, "  [%s] Port %d\n", okOr(r.Service.PortFree, "WARN"), r.Service.Port)
	fmt.Fprintf(w, "  [%s] Assets: %s\n", okOr(r.Service.AssetsLoaded, "ERROR"), r.Service.AssetDir)
	if r.Service.Template != "" {
		fmt.Fprintf(w, "  [OK] Template: %s\n", r.Service.Template)
	}
	fmt.Fprintf(w, "  [%s] Static: %s\n", okOr(r.Service.StaticFound, "WARN"), r.Service.StaticDir)
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to serve")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}

func okOr(ok bool, label string) string {
	if ok {
		return "OK"
	}
	return label
}
