//go:build mage

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type cmdOptions struct {
	args  []string
	env   map[string]string
	quiet bool
}

type cmdOption func(*cmdOptions)

func withArgs(args ...string) cmdOption {
	return func(o *cmdOptions) {
		o.args = args
	}
}

// withEnv takes KEY=VALUE pairs.
func withEnv(env ...string) cmdOption {
	return func(o *cmdOptions) {
		for _, kv := range env {
			k, v, _ := strings.Cut(kv, "=")
			o.env[k] = v
		}
	}
}

// withQuiet buffers the output and only prints it when the command fails. Ignored with -v.
func withQuiet() cmdOption {
	return func(o *cmdOptions) {
		o.quiet = true
	}
}

func executeCmd(command string, options ...cmdOption) error {
	opts := &cmdOptions{env: map[string]string{}}
	for _, o := range options {
		o(opts)
	}

	fmt.Printf("Executing: %s %s\n", command, strings.Join(opts.args, " "))

	var out bytes.Buffer
	var stdout, stderr io.Writer = os.Stdout, os.Stderr
	buffered := opts.quiet && !mg.Verbose()
	if buffered {
		stdout, stderr = &out, &out
	}

	ran, err := sh.Exec(opts.env, stdout, stderr, command, opts.args...)
	if err != nil {
		if ran && buffered {
			fmt.Println("... failed command output:")
			fmt.Println(out.String())
		}
		return errors.Wrapf(err, "executing %s", command)
	}
	return nil
}
