// Package route53 declares the AWS::Route53 resource types used by the stack.
package route53

// HostedZone represents AWS::Route53::HostedZone.
//
// Attributes: Id, NameServers.
type HostedZone struct {
	Name             string                       `json:"Name,omitempty"`
	HostedZoneConfig *HostedZone_HostedZoneConfig `json:"HostedZoneConfig,omitempty"`
	HostedZoneTags   []HostedZone_HostedZoneTag   `json:"HostedZoneTags,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r HostedZone) ResourceType() string { return "AWS::Route53::HostedZone" }

// SetTag adds or replaces a hosted zone tag.
func (r *HostedZone) SetTag(key, value string) {
	for i := range r.HostedZoneTags {
		if r.HostedZoneTags[i].Key == key {
			r.HostedZoneTags[i].Value = value
			return
		}
	}
	r.HostedZoneTags = append(r.HostedZoneTags, HostedZone_HostedZoneTag{Key: key, Value: value})
}

// TagValue returns the value of the hosted zone tag with the given key.
func (r *HostedZone) TagValue(key string) (string, bool) {
	for _, tag := range r.HostedZoneTags {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

// HostedZone_HostedZoneConfig carries the zone comment.
type HostedZone_HostedZoneConfig struct {
	Comment string `json:"Comment,omitempty"`
}

// HostedZone_HostedZoneTag is a hosted zone tag.
type HostedZone_HostedZoneTag struct {
	Key   string `json:"Key"`
	Value string `json:"Value"`
}

// RecordSet represents AWS::Route53::RecordSet.
type RecordSet struct {
	HostedZoneId    any                    `json:"HostedZoneId,omitempty"`
	Name            string                 `json:"Name,omitempty"`
	Type            string                 `json:"Type,omitempty"`
	TTL             string                 `json:"TTL,omitempty"`
	ResourceRecords []any                  `json:"ResourceRecords,omitempty"`
	AliasTarget     *RecordSet_AliasTarget `json:"AliasTarget,omitempty"`
	Comment         string                 `json:"Comment,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r RecordSet) ResourceType() string { return "AWS::Route53::RecordSet" }

// RecordSet_AliasTarget points a record at an AWS resource such as a load balancer.
type RecordSet_AliasTarget struct {
	DNSName              any  `json:"DNSName,omitempty"`
	HostedZoneId         any  `json:"HostedZoneId,omitempty"`
	EvaluateTargetHealth bool `json:"EvaluateTargetHealth,omitempty"`
}
