package topology

import (
	"fmt"
	"net"

	"github.com/apparentlymart/go-cidr/cidr"
)

// SubnetBlock is the address range allocated to one subnet.
type SubnetBlock struct {
	Tier Tier
	Zone int
	CIDR *net.IPNet
}

// AllocateSubnets carves one block per tier per zone out of vpcCIDR. Blocks
// are handed out in tier order, then zone order, each aligned to its own
// mask and placed directly after the previous block.
func AllocateSubnets(vpcCIDR string, zones int, masks map[Tier]int) ([]SubnetBlock, error) {
	_, vpc, err := net.ParseCIDR(vpcCIDR)
	if err != nil {
		return nil, fmt.Errorf("parsing VPC CIDR: %w", err)
	}
	vpcPrefix, _ := vpc.Mask.Size()

	var (
		blocks []SubnetBlock
		nets   []*net.IPNet
		prev   *net.IPNet
	)
	for _, tier := range Tiers {
		mask, ok := masks[tier]
		if !ok {
			return nil, fmt.Errorf("no mask for %s subnets", tier)
		}
		if mask < vpcPrefix {
			return nil, fmt.Errorf("%s subnet mask /%d is larger than VPC %s", tier, mask, vpc)
		}
		for az := 0; az < zones; az++ {
			var next *net.IPNet
			if prev == nil {
				next = &net.IPNet{IP: vpc.IP, Mask: net.CIDRMask(mask, 32)}
			} else {
				var overflow bool
				next, overflow = cidr.NextSubnet(prev, mask)
				if overflow {
					return nil, fmt.Errorf("VPC %s has no room for %s subnet %d", vpc, tier, az+1)
				}
			}
			if !vpc.Contains(next.IP) {
				return nil, fmt.Errorf("VPC %s has no room for %s subnet %d", vpc, tier, az+1)
			}
			blocks = append(blocks, SubnetBlock{Tier: tier, Zone: az, CIDR: next})
			nets = append(nets, next)
			prev = next
		}
	}

	if err := cidr.VerifyNoOverlap(nets, vpc); err != nil {
		return nil, fmt.Errorf("subnet allocation: %w", err)
	}
	return blocks, nil
}
