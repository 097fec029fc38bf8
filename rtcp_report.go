// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package rtprecv

import (
	"github.com/pion/rtcp"
)

// ReceptionReport renders a statistics snapshot as an RTCP reception
// report block for this stream. RTCP sender owns LastSenderReport and
// Delay, they are left zero here.
func (r *Receiver) ReceptionReport(reset bool) (rtcp.ReceptionReport, error) {
	stats, err := r.Statistics(reset)
	if err != nil {
		return rtcp.ReceptionReport{}, err
	}
	return rtcp.ReceptionReport{
		SSRC:               r.SSRC(),
		FractionLost:       stats.FractionLost,
		TotalLost:          stats.CumulativeLost & 0xffffff,
		LastSequenceNumber: stats.ExtendedHighSeqNum,
		Jitter:             stats.Jitter,
	}, nil
}
