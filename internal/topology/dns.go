package topology

import (
	"strings"
	"time"

	"github.com/wpstack/wpstack/intrinsics"
	"github.com/wpstack/wpstack/resources/route53"
)

func (b *builder) declareDNS() {
	st := b.stack
	zoneName := strings.TrimSuffix(b.cfg.ZoneName, ".")

	b.zone53 = st.Add(HostedZoneID, &route53.HostedZone{
		Name: zoneName,
		HostedZoneConfig: &route53.HostedZone_HostedZoneConfig{
			Comment: "Public zone for the WordPress application",
		},
	})

	// Route 53 rejects a TTL on alias records; the configured TTL is kept
	// on Result.RecordTTL only.
	st.Add(RecordID, &route53.RecordSet{
		HostedZoneId: b.zone53.Ref(),
		Name:         b.cfg.RecordFQDN() + ".",
		Type:         "A",
		AliasTarget: &route53.RecordSet_AliasTarget{
			DNSName: intrinsics.Join{
				Delimiter: "",
				Values:    []any{"dualstack.", b.lb.GetAtt("DNSName")},
			},
			HostedZoneId: b.lb.GetAtt("CanonicalHostedZoneID"),
		},
	})
	b.result.RecordTTL = time.Duration(b.cfg.TTLMinutes) * time.Minute
}
