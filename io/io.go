// Package io reads run configurations and step tables and writes event logs
// and run summaries.
package io

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/phil-mansfield/gotpc"
)

// OutputMode is the permission of every written output file.
const OutputMode os.FileMode = 0644

// writeFile writes fname through a temporary file. See writeFiles.
func writeFile(fname string, fn func(w io.Writer) error) error {
	return writeFiles([]string{fname}, []func(w io.Writer) error{fn})
}

// writeFiles writes each fnames[i] with fns[i]. Every file is first written
// to a temporary file in the same directory, and the temporary files are
// renamed into place only after all of them have been written. On failure,
// the temporary files and any outputs already renamed are removed.
func writeFiles(fnames []string, fns []func(w io.Writer) error) error {
	tmps := make([]string, 0, len(fnames))
	for i := range fnames {
		tmp, err := writeTemp(fnames[i], fns[i])
		if err != nil {
			removeAll(tmps)
			return err
		}
		tmps = append(tmps, tmp)
	}

	for i, tmp := range tmps {
		if err := os.Rename(tmp, fnames[i]); err != nil {
			removeAll(tmps[i:])
			removeAll(fnames[:i])
			return err
		}
	}
	return nil
}

// writeTemp writes fn's output to a new temporary file next to fname and
// returns its name. Nothing is left behind on failure.
func writeTemp(fname string, fn func(w io.Writer) error) (tmp string, err error) {
	dir, base := filepath.Split(fname)
	if dir == "" {
		dir = "."
	}

	f, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return "", err
	}
	name := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(name)
		}
	}()

	bw := bufio.NewWriter(f)
	if err = fn(bw); err != nil {
		return "", err
	}
	if err = bw.Flush(); err != nil {
		return "", err
	}
	// CreateTemp only gives the owner access.
	if err = f.Chmod(OutputMode); err != nil {
		return "", err
	}
	if err = f.Sync(); err != nil {
		return "", err
	}
	if err = f.Close(); err != nil {
		return "", err
	}
	return name, nil
}

func removeAll(fnames []string) {
	for _, fname := range fnames {
		os.Remove(fname)
	}
}

// SaveSummary writes a run summary as YAML.
func SaveSummary(fname string, s *gotpc.Summary) error {
	return writeFile(fname, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	})
}
