// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

package repeat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRemoveAllEmptyDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "victim")
	if err := os.Mkdir(dir, 0777); err != nil {
		t.Fatal(err)
	}
	if err := RemoveAll(dir); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if _, err := os.Lstat(dir); !os.IsNotExist(err) {
		t.Fatalf("directory still present after RemoveAll: %v", err)
	}
}

func TestRemoveAllRegularFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "victim")
	if err := os.Mkdir(dir, 0777); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a", "b", "c"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := RemoveAll(dir); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if _, err := os.Lstat(dir); !os.IsNotExist(err) {
		t.Fatal("directory still present after RemoveAll")
	}
}

func TestRemoveAllNestedTree(t *testing.T) {
	root := filepath.Join(t.TempDir(), "victim")
	deep := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(deep, 0777); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(deep, "leaf"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "a", "mid"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := RemoveAll(root); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if _, err := os.Lstat(root); !os.IsNotExist(err) {
		t.Fatal("tree still present after RemoveAll")
	}
}

func TestRemoveAllDoesNotFollowSymlinks(t *testing.T) {
	outside := filepath.Join(t.TempDir(), "precious")
	if err := os.WriteFile(outside, []byte("keep"), 0644); err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(t.TempDir(), "victim")
	if err := os.Mkdir(dir, 0777); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(outside, filepath.Join(dir, "link")); err != nil {
		t.Fatal(err)
	}
	if err := RemoveAll(dir); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Fatalf("symlink target was touched: %v", err)
	}
}

func TestRemoveAllMissingDirectory(t *testing.T) {
	err := RemoveAll(filepath.Join(t.TempDir(), "never-created"))
	if err == nil {
		t.Fatal("RemoveAll succeeded on a missing directory")
	}
}
