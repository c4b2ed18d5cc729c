package topology

import (
	"github.com/wpstack/wpstack/internal/stack"
	"github.com/wpstack/wpstack/intrinsics"
	"github.com/wpstack/wpstack/resources"
	"github.com/wpstack/wpstack/resources/ec2"
)

// network holds the declarations later layers reference.
type network struct {
	vpc      *stack.Declaration
	subnets  map[Tier][]*stack.Declaration
	blocks   []SubnetBlock
	igwRoute []string // public default routes
	natRoute []string // private default routes
}

func (n *network) subnetRefs(t Tier) []any {
	refs := make([]any, 0, len(n.subnets[t]))
	for _, s := range n.subnets[t] {
		refs = append(refs, s.Ref())
	}
	return refs
}

func (b *builder) declareNetwork() error {
	zones := b.cfg.MaxAZs
	blocks, err := AllocateSubnets(b.cfg.VPCCIDR, zones, map[Tier]int{
		TierPublic:   b.cfg.PublicSubnetMask,
		TierPrivate:  b.cfg.PrivateSubnetMask,
		TierIsolated: b.cfg.IsolatedSubnetMask,
	})
	if err != nil {
		return err
	}

	st := b.stack
	nw := &network{subnets: make(map[Tier][]*stack.Declaration), blocks: blocks}
	b.net = nw

	nw.vpc = st.Add(VpcID, &ec2.VPC{
		CidrBlock:          b.cfg.VPCCIDR,
		EnableDnsHostnames: true,
		EnableDnsSupport:   true,
		InstanceTenancy:    "default",
	})
	b.name(VpcID, "wordpress-vpc")

	igw := st.Add(InternetGatewayID, &ec2.InternetGateway{})
	attachment := st.Add(GatewayAttachmentID, &ec2.VPCGatewayAttachment{
		InternetGatewayId: igw.Ref(),
		VpcId:             nw.vpc.Ref(),
	})

	for _, block := range blocks {
		subnet := &ec2.Subnet{
			VpcId:            nw.vpc.Ref(),
			CidrBlock:        block.CIDR.String(),
			AvailabilityZone: b.zone(block.Zone),
		}
		switch block.Tier {
		case TierPublic:
			subnet.MapPublicIpOnLaunch = resources.Bool(true)
		default:
			subnet.MapPublicIpOnLaunch = resources.Bool(false)
		}
		d := st.Add(SubnetID(block.Tier, block.Zone), subnet)
		nw.subnets[block.Tier] = append(nw.subnets[block.Tier], d)

		rt := st.Add(RouteTableID(block.Tier, block.Zone), &ec2.RouteTable{VpcId: nw.vpc.Ref()})
		st.Add(RouteTableAssociationID(block.Tier, block.Zone), &ec2.SubnetRouteTableAssociation{
			RouteTableId: rt.Ref(),
			SubnetId:     d.Ref(),
		})

		label := tierLabel[block.Tier]
		b.name(d.ID, label)
		b.name(rt.ID, label)

		if block.Tier == TierPublic {
			route := st.Add(DefaultRouteID(block.Tier, block.Zone), &ec2.Route{
				RouteTableId:         rt.Ref(),
				DestinationCidrBlock: "0.0.0.0/0",
				GatewayId:            igw.Ref(),
			}, stack.DependsOn(attachment.ID))
			nw.igwRoute = append(nw.igwRoute, route.ID)
		}
	}

	// NAT gateways live in the first NATGateways public subnets; private
	// subnets use them round-robin. Isolated subnets get no default route.
	var nats []*stack.Declaration
	for i := 0; i < b.cfg.NATGateways; i++ {
		eip := st.Add(NatEipID(i), &ec2.EIP{Domain: "vpc"}, stack.DependsOn(attachment.ID))
		nat := st.Add(NatGatewayID(i), &ec2.NatGateway{
			AllocationId: eip.GetAtt("AllocationId"),
			SubnetId:     nw.subnets[TierPublic][i].Ref(),
		}, stack.DependsOn(nw.igwRoute[i]))
		b.name(eip.ID, tierLabel[TierPublic])
		b.name(nat.ID, tierLabel[TierPublic])
		nats = append(nats, nat)
	}

	for az := range nw.subnets[TierPrivate] {
		route := st.Add(DefaultRouteID(TierPrivate, az), &ec2.Route{
			RouteTableId:         intrinsics.Ref{LogicalName: RouteTableID(TierPrivate, az)},
			DestinationCidrBlock: "0.0.0.0/0",
			NatGatewayId:         nats[az%len(nats)].Ref(),
		})
		nw.natRoute = append(nw.natRoute, route.ID)
	}

	return nil
}

// zone returns the availability zone expression for zone index i.
func (b *builder) zone(i int) any {
	if zones := b.cfg.Zones(); zones != nil {
		return zones[i]
	}
	return intrinsics.AvailabilityZone(i)
}
