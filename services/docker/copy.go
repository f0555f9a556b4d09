package docker

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/moby/moby/client"
)

// CopyFrom reads one regular file out of the container.
func (p *DockerPlatform) CopyFrom(ctx context.Context, containerID, srcPath string) ([]byte, error) {
	res, err := p.client.CopyFromContainer(ctx, containerID, client.CopyFromContainerOptions{
		SourcePath: srcPath,
	})
	if err != nil {
		return nil, fmt.Errorf("copy %q from %q: %w", srcPath, containerID, err)
	}
	defer res.Content.Close()

	content, err := firstFile(res.Content)
	if err != nil {
		return nil, fmt.Errorf("copy %q from %q: %w", srcPath, containerID, err)
	}
	return content, nil
}

// CopyTo writes content to dstPath in the container, replacing the file.
func (p *DockerPlatform) CopyTo(ctx context.Context, containerID, dstPath string, content []byte) error {
	archive, err := singleFileArchive(path.Base(dstPath), content)
	if err != nil {
		return err
	}

	_, err = p.client.CopyToContainer(ctx, containerID, client.CopyToContainerOptions{
		DestinationPath: path.Dir(dstPath),
		Content:         archive,
	})
	if err != nil {
		return fmt.Errorf("copy %q to %q: %w", dstPath, containerID, err)
	}
	return nil
}

var errNoFile = errors.New("archive contains no regular file")

// firstFile returns the content of the first regular file in a tar stream.
func firstFile(r io.Reader) ([]byte, error) {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, errNoFile
		}
		if err != nil {
			return nil, fmt.Errorf("read archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		return io.ReadAll(tr)
	}
}

func singleFileArchive(name string, content []byte) (io.Reader, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(content)),
		ModTime: time.Now(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return nil, fmt.Errorf("write archive header: %w", err)
	}
	if _, err := tw.Write(content); err != nil {
		return nil, fmt.Errorf("write archive: %w", err)
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return &buf, nil
}
