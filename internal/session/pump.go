package session

import (
	"fitvoice/internal/ports"
)

// pumpAudio feeds captured audio chunks into the recognition task. It runs
// on its own goroutine and never touches session state; capture teardown
// surfaces here as a read error, and recognition problems surface through
// the task's own result channel.
func pumpAudio(audio ports.AudioSession, task ports.RecognitionTask, chunkSize int, done chan struct{}) {
	defer close(done)

	if chunkSize < 256 {
		chunkSize = 4096
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := audio.Read(buf)
		if n > 0 {
			if sendErr := task.SendAudio(buf[:n]); sendErr != nil {
				return
			}
		}
		if err != nil {
			// io.EOF is the normal end of a stopped capture stream.
			return
		}
	}
}
