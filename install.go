package main

import (
	"io"
	"os"
	"path/filepath"
	"text/template"

	"github.com/kardianos/osext"
	log "github.com/sirupsen/logrus"
)

const serviceFile = `
[Unit]
Description=GPIO Button Press Counter

[Service]
ExecStart={{.BinPath}} run -c {{ .ConfigFile }}
Restart=on-failure

[Install]
WantedBy=multi-user.target
`

var serviceTmpl = template.Must(template.New("service").Parse(serviceFile))

const (
	binName     = "presscount"
	servicePath = "usr/lib/systemd/system/presscount.service"
)

func install(prefix string, reset bool) error {
	bPath, err := osext.Executable()
	if err != nil {
		return err
	}
	return installFrom(bPath, prefix, configPath, reset)
}

// installFrom copies the binary at bPath under prefix, writes the systemd
// unit, and writes the default config to confPath unless one exists.
func installFrom(bPath, prefix, confPath string, reset bool) error {
	if prefix == "" {
		prefix = "/"
	}

	// ExecStart and -c refer to the installed system, not the prefix
	binPath := filepath.Join("/usr/bin", binName)
	err := copyFile(bPath, filepath.Join(prefix, binPath), 0755)
	if err != nil {
		return err
	}

	dstPath := filepath.Join(prefix, servicePath)
	err = os.MkdirAll(filepath.Dir(dstPath), 0755)
	if err != nil {
		return err
	}
	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer dst.Close()

	err = serviceTmpl.Execute(dst, struct{ BinPath, ConfigFile string }{binPath, confPath})
	if err != nil {
		return err
	}
	err = dst.Close()
	if err != nil {
		return err
	}

	dstPath = filepath.Join(prefix, confPath)
	_, err = os.Stat(dstPath)
	if err == nil && !reset {
		log.WithField("Path", dstPath).Infoln("keeping existing config")
		return nil
	}

	err = os.MkdirAll(filepath.Dir(dstPath), 0755)
	if err != nil {
		return err
	}
	dst, err = os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.WriteString(dst, configFile)
	if err != nil {
		return err
	}
	log.WithField("Path", dstPath).Infoln("wrote default config")

	return dst.Close()
}

func copyFile(srcPath, dstPath string, mode os.FileMode) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	err = os.MkdirAll(filepath.Dir(dstPath), 0755)
	if err != nil {
		return err
	}
	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	if err != nil {
		return err
	}
	return dst.Close()
}
