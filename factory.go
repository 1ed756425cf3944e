package shmq

import (
	"os"
	"path/filepath"

	"github.com/aistore-io/shmq/cmn/cos"
	"github.com/aistore-io/shmq/transport"
)

// CreatePair wires one Sender and one Receiver together: a data channel
// carrying segment Descriptors sender->receiver, and a symmetric ack
// channel carrying released segment names receiver->sender, each a POSIX
// named pipe under cfg.FIFODir (spec §4.5). capacity bounds how many
// segments the Sender may have outstanding (unacked) at once; capacity <= 0
// means unbounded (spec §6).
func CreatePair(cfg Config, capacity int) (*Sender, *Receiver, error) {
	if cfg.FIFODir == "" {
		cfg = DefaultConfig()
	}
	if err := os.MkdirAll(cfg.FIFODir, 0o700); err != nil {
		return nil, nil, cos.NewErrSegment("mkdir-fifo-dir", err)
	}

	id := cos.GenID()
	dataPath := filepath.Join(cfg.FIFODir, cfg.SegmentPrefix+"-data-"+id)
	ackPath := filepath.Join(cfg.FIFODir, cfg.SegmentPrefix+"-ack-"+id)

	senderDataQ, err := transport.NewFIFO(dataPath)
	if err != nil {
		return nil, nil, err
	}
	receiverDataQ, err := transport.NewFIFO(dataPath)
	if err != nil {
		senderDataQ.Close()
		return nil, nil, err
	}
	receiverAckQ, err := transport.NewFIFO(ackPath)
	if err != nil {
		senderDataQ.Close()
		receiverDataQ.Close()
		return nil, nil, err
	}
	senderAckQ, err := transport.NewFIFO(ackPath)
	if err != nil {
		senderDataQ.Close()
		receiverDataQ.Close()
		receiverAckQ.Close()
		return nil, nil, err
	}

	sender := newSender(cfg, capacity, senderDataQ, senderAckQ)
	receiver := newReceiver(receiverDataQ, receiverAckQ)

	// the Sender created both FIFO paths; it alone unlinks them, mirroring
	// the segment-ownership rule of spec §3.
	sender.fifoPaths = [2]string{dataPath, ackPath}

	return sender, receiver, nil
}
