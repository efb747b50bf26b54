package serialio

import (
	"testing"
	"time"
)

func TestPTYWriteRead(t *testing.T) {
	master, slave, err := OpenPTY()
	if err != nil {
		t.Skipf("pty unavailable in this sandbox: %v", err)
	}
	defer master.Close()
	defer slave.Close()

	msg := []byte("~#GD-0608-R00,V1.2-7\r")
	go func() {
		time.Sleep(5 * time.Millisecond)
		master.Write(msg)
	}()

	buf := make([]byte, 64)
	n, err := slave.ReadLine(buf, 200000)
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if string(buf[:n]) != string(msg) {
		t.Fatalf("got %q want %q", buf[:n], msg)
	}
}

func TestEnumerateNonexistentDir(t *testing.T) {
	if _, err := Enumerate("/does/not/exist/at/all"); err == nil {
		t.Fatal("expected error enumerating a nonexistent directory")
	}
}
