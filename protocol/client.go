package protocol

import (
	"errors"
	"fmt"
	"io"
	"time"

	"duepwm/core"
)

// ErrTimeout means no response frame arrived in time.
var ErrTimeout = errors.New("response timeout")

// Client speaks the protocol from the host side over any byte stream,
// typically a serial port. Calls are synchronous: one request frame out,
// one response frame back, sequence numbers matched. The port's own read
// timeout provides the polling granularity.
type Client struct {
	port    io.ReadWriter
	dec     *Decoder
	seq     uint8
	timeout time.Duration
}

// NewClient wraps a byte stream. A zero timeout defaults to two seconds.
func NewClient(port io.ReadWriter, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		port:    port,
		dec:     NewDecoder(),
		seq:     SeqHost,
		timeout: timeout,
	}
}

// Call sends a request payload and waits for the matching response. The
// returned values are the response fields after the status code; a non-OK
// status comes back as the corresponding core error.
func (c *Client) Call(request []byte) ([]uint32, error) {
	c.seq = (c.seq+1)&SeqMask | SeqHost
	frame, err := EncodeFrame(c.seq, request)
	if err != nil {
		return nil, err
	}
	if _, err := c.port.Write(frame); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	wantCmd := request
	cmd, err := ReadUint(&wantCmd)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(c.timeout)
	buf := make([]byte, 256)
	for {
		for {
			f, ok := c.dec.Next()
			if !ok {
				break
			}
			if f.Seq&SeqMask != c.seq&SeqMask {
				continue // stale response from an earlier exchange
			}
			return parseResponse(cmd, f.Payload)
		}

		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
		n, err := c.port.Read(buf)
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if n > 0 {
			c.dec.Write(buf[:n])
		} else if err == io.EOF {
			return nil, ErrTimeout
		}
	}
}

func parseResponse(wantCmd uint32, payload []byte) ([]uint32, error) {
	cmd, err := ReadUint(&payload)
	if err != nil {
		return nil, err
	}
	if cmd != wantCmd {
		return nil, fmt.Errorf("response for command %d, expected %d", cmd, wantCmd)
	}
	status, err := ReadUint(&payload)
	if err != nil {
		return nil, err
	}
	if err := StatusError(status); err != nil {
		return nil, err
	}
	var values []uint32
	for len(payload) > 0 {
		v, err := ReadUint(&payload)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// ConfigureChannel issues CmdConfigChannel and returns the period the
// firmware derived.
func (c *Client) ConfigureChannel(ch uint8, cfg core.ChannelConfig) (uint32, error) {
	values, err := c.Call(AppendConfigChannel(nil, ch, cfg))
	if err != nil {
		return 0, err
	}
	if len(values) < 1 {
		return 0, errors.New("short configure response")
	}
	return values[0], nil
}

// SetDutyCycle issues CmdSetDuty.
func (c *Client) SetDutyCycle(ch uint8, duty uint32) error {
	req := AppendUint(nil, CmdSetDuty)
	req = AppendUint(req, uint32(ch))
	req = AppendUint(req, duty)
	_, err := c.Call(req)
	return err
}

// EnableChannels issues CmdEnable for a channel bitmask.
func (c *Client) EnableChannels(mask uint8) error {
	_, err := c.Call(AppendUint(AppendUint(nil, CmdEnable), uint32(mask)))
	return err
}

// DisableChannels issues CmdDisable for a channel bitmask.
func (c *Client) DisableChannels(mask uint8) error {
	_, err := c.Call(AppendUint(AppendUint(nil, CmdDisable), uint32(mask)))
	return err
}

// ChannelStatus issues CmdStatus and returns the live status bitmask.
func (c *Client) ChannelStatus() (uint8, error) {
	values, err := c.Call(AppendUint(nil, CmdStatus))
	if err != nil {
		return 0, err
	}
	if len(values) < 1 {
		return 0, errors.New("short status response")
	}
	return uint8(values[0]), nil
}

// ChannelInfo issues CmdChannelInfo for one channel.
func (c *Client) ChannelInfo(ch uint8) (ChannelInfo, error) {
	req := AppendUint(nil, CmdChannelInfo)
	req = AppendUint(req, uint32(ch))
	values, err := c.Call(req)
	if err != nil {
		return ChannelInfo{}, err
	}
	if len(values) < 4 {
		return ChannelInfo{}, errors.New("short channel info response")
	}
	return ChannelInfo{
		Enabled:     values[0] != 0,
		Period:      values[1],
		DutyCycle:   values[2],
		FrequencyHz: values[3],
	}, nil
}

// SetAuxClock issues CmdSetClock with an explicit prescaler and divisor.
func (c *Client) SetAuxClock(id core.ClockID, prescaler, divisor uint8) error {
	req := AppendUint(nil, CmdSetClock)
	req = AppendUint(req, uint32(id))
	req = AppendUint(req, uint32(prescaler))
	req = AppendUint(req, uint32(divisor))
	_, err := c.Call(req)
	return err
}

// SetAuxClockFrequency issues CmdSetClockFreq and returns the derived
// prescaler and divisor.
func (c *Client) SetAuxClockFrequency(id core.ClockID, hz uint32) (core.ClockSetting, error) {
	req := AppendUint(nil, CmdSetClockFreq)
	req = AppendUint(req, uint32(id))
	req = AppendUint(req, hz)
	values, err := c.Call(req)
	if err != nil {
		return core.ClockSetting{}, err
	}
	if len(values) < 2 {
		return core.ClockSetting{}, errors.New("short clock response")
	}
	return core.ClockSetting{Prescaler: uint8(values[0]), Divisor: uint8(values[1])}, nil
}

// TurnOffAuxClock issues CmdClockOff.
func (c *Client) TurnOffAuxClock(id core.ClockID) error {
	_, err := c.Call(AppendUint(AppendUint(nil, CmdClockOff), uint32(id)))
	return err
}

// Reset issues CmdReset.
func (c *Client) Reset() error {
	_, err := c.Call(AppendUint(nil, CmdReset))
	return err
}

// Ping issues CmdPing.
func (c *Client) Ping() error {
	_, err := c.Call(AppendUint(nil, CmdPing))
	return err
}
